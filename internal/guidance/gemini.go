package guidance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/baseguide/baseguide/internal/analysis"
)

const geminiRoot = "https://generativelanguage.googleapis.com/v1beta"

// GenerateError wraps any failure while producing a guide with Gemini.
type GenerateError struct {
	Err error
}

func (e *GenerateError) Error() string { return "generating duplication guide: " + e.Err.Error() }
func (e *GenerateError) Unwrap() error { return e.Err }

// GeminiClient generates guides through the Gemini REST API.
type GeminiClient struct {
	apiKey     string
	model      string
	root       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeminiClient creates a client for the given model, e.g.
// "gemini-2.5-pro".
func NewGeminiClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *GeminiClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		root:       geminiRoot,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	CandidateCount   int     `json:"candidateCount"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate prompts Gemini with the analysis payload and decodes the JSON
// guide it returns. Transient HTTP failures are retried with exponential
// backoff; a response that is not a valid guide is an error, never a
// partial result.
func (c *GeminiClient) Generate(ctx context.Context, a *analysis.SchemaAnalysis) (*Guide, error) {
	prompt, err := buildPrompt(a)
	if err != nil {
		return nil, &GenerateError{Err: err}
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:      0.25,
			TopP:             0.9,
			TopK:             40,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, &GenerateError{Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.root, c.model, c.apiKey)

	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Debug("retrying Gemini request", "status", resp.StatusCode)
			return fmt.Errorf("gemini status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("gemini status %d: %s", resp.StatusCode, payload))
		}

		var decoded geminiResponse
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		text = responseText(decoded)
		if text == "" {
			return backoff.Permanent(fmt.Errorf("response contained no text content"))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, &GenerateError{Err: err}
	}

	guide := &Guide{}
	if err := json.Unmarshal([]byte(text), guide); err != nil {
		c.logger.Error("Gemini returned invalid guide JSON", "error", err)
		return nil, &GenerateError{Err: fmt.Errorf("response was not valid guide JSON: %w", err)}
	}
	return guide, nil
}

func responseText(resp geminiResponse) string {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// buildPrompt assembles the instruction block plus the JSON analysis
// payload Gemini should work from.
func buildPrompt(a *analysis.SchemaAnalysis) (string, error) {
	payload, err := json.MarshalIndent(map[string]any{"base": a}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling analysis payload: %w", err)
	}

	shape, err := json.MarshalIndent(Guide{
		BaseOverview:      "string",
		KeyConsiderations: []string{"string"},
		TableDetails: []TableDetail{{
			TableName:         "string",
			Summary:           "string",
			FieldInstructions: []string{"string"},
			ViewInstructions:  []string{"string"},
			SequencingNotes:   []string{"string"},
		}},
		Relationships: []string{"string"},
		DuplicationSteps: []Step{{
			Order:         1,
			Title:         "string",
			Description:   "string",
			Prerequisites: []string{"string"},
		}},
		PostDuplicationChecks: []string{"string"},
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling guide shape: %w", err)
	}

	return "You are an Airtable expert helping engineers recreate complex bases.\n" +
		"Analyze the provided base schema and produce a structured JSON object " +
		"that strictly matches the following schema:\n" +
		string(shape) + "\n\n" +
		"Guidance:\n" +
		"- Provide a concise overview emphasizing critical configuration areas.\n" +
		"- Include detailed table instructions covering fields, formulas, lookups, " +
		"rollups, select options, and formatting requirements.\n" +
		"- Outline relationships and dependencies so tables can be created in the correct order.\n" +
		"- Supply a sequential duplication plan using the base's dependencies.\n" +
		"- End with validation steps to confirm parity with the original base.\n\n" +
		"Schema payload:\n" +
		string(payload) + "\n\n" +
		"Output only the JSON object.", nil
}
