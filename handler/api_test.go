package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiobook-worker/entities"
	"audiobook-worker/handler"
	"audiobook-worker/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

type stubAnalyzer struct {
	characters []entities.Character
	gotText    string
}

func (s *stubAnalyzer) ExtractCharacters(_ context.Context, text string) ([]entities.Character, error) {
	s.gotText = text
	return s.characters, nil
}

func (s *stubAnalyzer) AnalyzeStructure(_ context.Context, _ string) ([]entities.StructuralSegment, error) {
	return nil, nil
}

func (s *stubAnalyzer) MatchVoices(_ context.Context, _ []entities.Character, _ []entities.VoiceActor) (map[string]string, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, api *handler.API) *gin.Engine {
	t.Helper()
	r := gin.New()
	api.Register(r)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateTextPassthrough(t *testing.T) {
	t.Parallel()
	api := &handler.API{Generator: &stubGenerator{reply: "a short story"}}
	r := newTestRouter(t, api)

	w := postJSON(r, "/api/gemini/generate", `{"prompt":"write a short story"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"generated_text":"a short story"}`, w.Body.String())

	w = postJSON(r, "/api/gemini/generate", `{"prompt":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/gemini/generate", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractCharactersFromRawText(t *testing.T) {
	t.Parallel()
	analyzer := &stubAnalyzer{characters: []entities.Character{{Name: "Alice", Description: "curious"}}}
	api := &handler.API{Analyzer: analyzer}
	r := newTestRouter(t, api)

	w := postJSON(r, "/api/extract_characters", `{"text":"Alice said hi."}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice said hi.", analyzer.gotText)
	assert.Contains(t, w.Body.String(), `"Alice"`)

	w = postJSON(r, "/api/extract_characters", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractCharactersFromStoredText(t *testing.T) {
	t.Parallel()
	store, err := repository.NewStore(t.TempDir())
	require.NoError(t, err)
	workID, err := store.PutOriginal("novel.txt", "Bob frowned.")
	require.NoError(t, err)

	analyzer := &stubAnalyzer{characters: []entities.Character{{Name: "Bob"}}}
	api := &handler.API{Store: store, Analyzer: analyzer}
	r := newTestRouter(t, api)

	w := postJSON(r, "/api/extract_characters", `{"file_id":"`+workID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob frowned.", analyzer.gotText)

	w = postJSON(r, "/api/extract_characters", `{"file_id":"no-such-work"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
