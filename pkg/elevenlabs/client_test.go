package elevenlabs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiobook-worker/config"
	"audiobook-worker/entities"
	"audiobook-worker/pkg/elevenlabs"
)

func testClient(baseURL string) *elevenlabs.Client {
	return elevenlabs.NewClient(config.ElevenLabs{
		APIKey:  "test-key",
		Model:   "test_tts_model",
		BaseURL: baseURL,
	})
}

func TestSynthesizeReturnsAudioBytes(t *testing.T) {
	t.Parallel()
	settings := entities.VoiceSettings{Stability: 0.3, SimilarityBoost: 0.4, Style: 0.9, UseSpeakerBoost: true, Speed: 1.2}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-123", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))

		var req struct {
			Text          string                 `json:"text"`
			ModelID       string                 `json:"model_id"`
			VoiceSettings entities.VoiceSettings `json:"voice_settings"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello there", req.Text)
		assert.Equal(t, "test_tts_model", req.ModelID)
		assert.Equal(t, settings, req.VoiceSettings)

		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	audio, err := testClient(srv.URL).Synthesize(context.Background(), "voice-123", "hello there", settings)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestSynthesizeInputValidation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected for invalid input")
	}))
	defer srv.Close()
	client := testClient(srv.URL)

	_, err := client.Synthesize(context.Background(), "", "hello", entities.VoiceSettings{})
	require.Error(t, err)

	_, err = client.Synthesize(context.Background(), "voice-123", "   ", entities.VoiceSettings{})
	require.Error(t, err)
}

func TestSynthesizeSurfacesUpstreamStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Synthesize(context.Background(), "voice-123", "hello", entities.VoiceSettings{})
	var statusErr *elevenlabs.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "voice not found", statusErr.Body)
}

func TestMissingKeyFailsWithoutRequest(t *testing.T) {
	t.Parallel()
	client := elevenlabs.NewClient(config.ElevenLabs{BaseURL: "http://127.0.0.1:0"})

	require.ErrorIs(t, client.Configured(), elevenlabs.ErrNotConfigured)

	_, err := client.Synthesize(context.Background(), "voice-123", "hello", entities.VoiceSettings{})
	require.ErrorIs(t, err, elevenlabs.ErrNotConfigured)

	_, err = client.ListVoices(context.Background())
	require.ErrorIs(t, err, elevenlabs.ErrNotConfigured)
}

func TestListVoicesPassesCatalogThrough(t *testing.T) {
	t.Parallel()
	catalog := `{"voices":[{"voice_id":"v1","name":"Mina"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		w.Write([]byte(catalog))
	}))
	defer srv.Close()

	raw, err := testClient(srv.URL).ListVoices(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, catalog, string(raw))
}
