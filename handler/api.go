package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audiobook-worker/dto"
	"audiobook-worker/entities"
	"audiobook-worker/pkg/elevenlabs"
	"audiobook-worker/pkg/gemini"
	"audiobook-worker/repository"
	"audiobook-worker/service"
)

// VoiceCatalog is the read-only passthrough to the synthesis provider's voice
// list.
type VoiceCatalog interface {
	ListVoices(ctx context.Context) (json.RawMessage, error)
}

// GeneratePublisher enqueues a generation job. Nil means generation runs
// in-process.
type GeneratePublisher interface {
	PublishGenerate(ctx context.Context, msg dto.GenerateMessage) error
}

// TextGenerator is the raw prompt passthrough of the text structuring
// collaborator.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type API struct {
	Store      repository.ArtifactStore
	Pipeline   service.PipelineService
	Matching   service.MatchingService
	Synthesis  service.SynthesisService
	Voices     VoiceCatalog
	Publisher  GeneratePublisher
	Generator  TextGenerator
	Analyzer   service.TextAnalyzer
	RosterPath string
	LoadRoster func(path string) ([]entities.VoiceActor, error)
}

func (a *API) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/upload/txt", a.Upload)
	api.POST("/gemini/generate", a.GenerateText)
	api.POST("/extract_characters", a.ExtractCharacters)
	api.POST("/analyze/characters/:id", a.AnalyzeCharacters)
	api.POST("/analyze/structure/:id", a.AnalyzeStructure)
	api.POST("/match/characters_voices/:id", a.MatchVoices)
	api.GET("/match/characters_voices/:id", a.GetMatching)
	api.GET("/voice_actors", a.VoiceActors)
	api.GET("/voices", a.ProviderVoices)
	api.GET("/processed_texts/:id", a.ProcessedText)
	api.GET("/metadata", a.AllMetadata)
	api.GET("/metadata/:id", a.MetadataByID)
	api.POST("/audiobook/generate/:id", a.Generate)
	api.GET("/audiobook/status/:id", a.Status)
	api.GET("/audiobook/audio/:id/:order", a.AudioSegment)
	api.DELETE("/works/:id", a.DeleteWork)
}

// statusFor maps the error taxonomy onto HTTP codes: input errors are the
// caller's to fix, malformed upstream output and provider failures are
// gateway-shaped, everything else is internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrUnknownWork), errors.Is(err, service.ErrMissingArtifact):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyText), errors.Is(err, service.ErrEmptyMatchInput):
		return http.StatusBadRequest
	case errors.Is(err, gemini.ErrNotConfigured), errors.Is(err, elevenlabs.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, gemini.ErrMalformedOutput), errors.Is(err, service.ErrSequenceInvalid), errors.Is(err, service.ErrUnresolvedActor):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrGenerationInFlight):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
}

func (a *API) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "no file part in the request"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".txt") {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file type not allowed, expected .txt"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read uploaded file"})
		return
	}
	if !utf8.Valid(data) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file content is not valid UTF-8"})
		return
	}

	text := string(data)
	workID, err := a.Pipeline.Upload(c.Request.Context(), fileHeader.Filename, text)
	if err != nil {
		abortWith(c, err)
		return
	}

	preview := text
	if len([]rune(preview)) > 200 {
		preview = string([]rune(preview)[:200]) + "..."
	}
	c.JSON(http.StatusOK, dto.UploadResponse{
		Message:           "file uploaded and saved successfully",
		WorkID:            workID,
		OriginalFilename:  fileHeader.Filename,
		ProcessedFilename: workID + ".txt",
		TextPreview:       preview,
	})
}

// GenerateText forwards a raw prompt to the text generation collaborator
// without touching any artifact.
func (a *API) GenerateText(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "prompt is required"})
		return
	}

	text, err := a.Generator.GenerateText(c.Request.Context(), req.Prompt)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated_text": text})
}

// ExtractCharacters runs character extraction on ad hoc text or on a stored
// work's text, without persisting the result. The staged variant under
// /analyze/characters/:id is what writes the artifact.
func (a *API) ExtractCharacters(c *gin.Context) {
	var req struct {
		Text   string `json:"text"`
		FileID string `json:"file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body is missing or not JSON"})
		return
	}

	text := req.Text
	if strings.TrimSpace(text) == "" && req.FileID != "" {
		path, ok := a.Store.TextPath(req.FileID)
		if !ok {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "stored text not found for the given file_id"})
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "stored text not found for the given file_id"})
			return
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "either text or file_id must be provided"})
		return
	}

	characters, err := a.Analyzer.ExtractCharacters(c.Request.Context(), text)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "character extraction successful", "characters": characters})
}

func (a *API) AnalyzeCharacters(c *gin.Context) {
	workID := c.Param("id")
	_, filename, err := a.Pipeline.AnalyzeCharacters(c.Request.Context(), workID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AnalysisResponse{
		Message:      "character analysis successful",
		WorkID:       workID,
		AnalysisFile: filename,
	})
}

func (a *API) AnalyzeStructure(c *gin.Context) {
	workID := c.Param("id")
	_, filename, err := a.Pipeline.AnalyzeStructure(c.Request.Context(), workID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AnalysisResponse{
		Message:      "structure analysis successful",
		WorkID:       workID,
		AnalysisFile: filename,
	})
}

func (a *API) MatchVoices(c *gin.Context) {
	workID := c.Param("id")
	_, filename, err := a.Matching.Match(c.Request.Context(), workID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MatchResponse{
		Message:      "character-voice matching completed",
		WorkID:       workID,
		MatchingFile: filename,
	})
}

func (a *API) GetMatching(c *gin.Context) {
	artifact, err := a.Matching.Load(c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

func (a *API) VoiceActors(c *gin.Context) {
	actors, err := a.LoadRoster(a.RosterPath)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to load voice roster")
		c.JSON(http.StatusOK, gin.H{"message": "no voice actors found", "voice_actors": []entities.VoiceActor{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voice_actors": actors})
}

func (a *API) ProviderVoices(c *gin.Context) {
	voices, err := a.Voices.ListVoices(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", voices)
}

func (a *API) ProcessedText(c *gin.Context) {
	workID := c.Param("id")
	path, ok := a.Store.TextPath(workID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "processed text file not found"})
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "processed text file not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_id": workID, "content": string(content)})
}

func (a *API) AllMetadata(c *gin.Context) {
	index, err := a.Store.AllMetadata()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, index)
}

func (a *API) MetadataByID(c *gin.Context) {
	record, ok := a.Store.Metadata(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "metadata not found for the given id"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Generate enqueues a generation job when a queue is configured, otherwise it
// runs the orchestrator in the background. Either way the caller polls
// /audiobook/status for progress.
func (a *API) Generate(c *gin.Context) {
	workID := c.Param("id")
	force := c.Query("force") == "true"

	if _, ok := a.Store.Metadata(workID); !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown work id"})
		return
	}

	msg := dto.GenerateMessage{WorkID: workID, Force: force}
	if a.Publisher != nil {
		if err := a.Publisher.PublishGenerate(c.Request.Context(), msg); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "failed to enqueue generation job"})
			return
		}
	} else {
		logger := zerolog.Ctx(c.Request.Context())
		go func() {
			ctx := logger.WithContext(context.Background())
			if _, err := a.Synthesis.Generate(ctx, workID, force); err != nil {
				logger.Error().Err(err).Str("work_id", workID).Msg("background generation failed")
			}
		}()
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "audiobook generation started", "work_id": workID})
}

func (a *API) Status(c *gin.Context) {
	c.JSON(http.StatusOK, a.Synthesis.CheckStatus(c.Param("id")))
}

func (a *API) AudioSegment(c *gin.Context) {
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "segment order must be an integer"})
		return
	}
	path, ok := a.Store.AudioSegmentPath(c.Param("id"), order)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "audio file not found"})
		return
	}
	c.File(path)
}

func (a *API) DeleteWork(c *gin.Context) {
	if err := a.Store.DeleteWork(c.Param("id")); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "work deleted"})
}
