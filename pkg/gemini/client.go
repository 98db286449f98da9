package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audiobook-worker/config"
	"audiobook-worker/entities"
)

var (
	// ErrNotConfigured marks calls attempted without an API key present.
	ErrNotConfigured = errors.New("gemini: api key is not configured")
	// ErrMalformedOutput marks responses that are not parseable JSON of the
	// expected shape. Distinct from transport errors so callers can decide
	// whether a retry with the same input is worthwhile.
	ErrMalformedOutput = errors.New("gemini: malformed model output")
)

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Gemini) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 600 * time.Second},
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, system, user string, temperature float64) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: user}}}},
		GenerationConfig: generationConfig{Temperature: temperature},
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	apiURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	request.Header.Set("x-goog-api-key", c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini: request failed: %d %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var completion generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", errors.Join(ErrMalformedOutput, err)
	}
	if len(completion.Candidates) == 0 || len(completion.Candidates[0].Content.Parts) == 0 {
		return "", errors.Join(ErrMalformedOutput, errors.New("empty candidates"))
	}

	return strings.TrimSpace(completion.Candidates[0].Content.Parts[0].Text), nil
}

// GenerateText is a raw prompt passthrough with no system instruction, backing
// the generic generation endpoint.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "", prompt, 0.7)
}

// stripFences removes a markdown code fence the model sometimes wraps its JSON
// in despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

const characterExtractionInstruction = `You analyze novel text and extract the main characters.
CRITICAL: output only valid JSON, no extra prose and no markdown code fences.

Identify the characters that recur or drive the story. For each one emit:
- "name": the name the character is most commonly called by
- "description": 1-2 sentences on appearance, personality, relationships and role
- "speech_pattern": one or two short representative lines or a description of how they talk

Output exactly a JSON array of objects with the fields name, description, speech_pattern.`

func (c *Client) ExtractCharacters(ctx context.Context, text string) ([]entities.Character, error) {
	raw, err := c.generate(ctx, characterExtractionInstruction, text, 0.1)
	if err != nil {
		return nil, err
	}

	var characters []entities.Character
	if err := json.Unmarshal([]byte(stripFences(raw)), &characters); err != nil {
		return nil, errors.Join(ErrMalformedOutput, err)
	}
	return characters, nil
}

const structureAnalysisInstruction = `You analyze novel text and break it into ordered speech units.
CRITICAL: output only valid JSON, no extra prose and no markdown code fences.

Split the text into sentences or meaning units and classify each as one of:
- "dialogue": a character speaking (speaker is the character's name, resolved from context)
- "narration": narrative or descriptive text (speaker is "Narrator")
- "sfx": onomatopoeia or sound effects (speaker is "SFX")

Tag each unit with:
- "order": 1-based position, strictly increasing with no gaps
- "emotion": one of "joy", "sadness", "fear", "anger", "disgust", "surprise", "neutral"
- "tone": a short free-text delivery tag such as "calm", "tense", "agitated", "pleading"
- "expression_guide": a natural-language performance note (pace, pitch, emphasis)

Output exactly a JSON array of objects with the fields order, type, speaker, text, emotion, tone, expression_guide.`

func (c *Client) AnalyzeStructure(ctx context.Context, text string) ([]entities.StructuralSegment, error) {
	raw, err := c.generate(ctx, structureAnalysisInstruction, text, 0.1)
	if err != nil {
		return nil, err
	}

	var segments []entities.StructuralSegment
	if err := json.Unmarshal([]byte(stripFences(raw)), &segments); err != nil {
		return nil, errors.Join(ErrMalformedOutput, err)
	}
	return segments, nil
}

const voiceMatchingInstruction = `You match novel characters with the best-fitting voice actor from a fixed roster.
CRITICAL: output only valid JSON, no extra prose and no markdown code fences.

Match by gender, age group, personality and how the voice feature description fits the
character. Assign exactly one actor to every character, and one to "Narrator" as well.
When a character is ambiguous pick the most neutral actor.

Output exactly a flat JSON object mapping each character name (and "Narrator") to the
actor's id field. Use actor ids, never actor names.`

func (c *Client) MatchVoices(ctx context.Context, characters []entities.Character, roster []entities.VoiceActor) (map[string]string, error) {
	charactersJSON, err := json.Marshal(characters)
	if err != nil {
		return nil, err
	}
	rosterJSON, err := json.Marshal(roster)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Match each character below with the most suitable voice actor.

Voice actor roster:
%s

Characters:
%s

Return a JSON object mapping character names (plus "Narrator") to actor ids.`, rosterJSON, charactersJSON)

	raw, err := c.generate(ctx, voiceMatchingInstruction, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	var voiceMap map[string]string
	if err := json.Unmarshal([]byte(stripFences(raw)), &voiceMap); err != nil {
		return nil, errors.Join(ErrMalformedOutput, err)
	}
	return voiceMap, nil
}
