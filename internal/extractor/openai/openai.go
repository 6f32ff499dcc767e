// Package openai extracts time-card data with an OpenAI-compatible vision
// chat completion that is asked to answer with a JSON object.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mellaniegambe/timecard/internal/connector/httpclient"
	"github.com/mellaniegambe/timecard/internal/extractor"
	"github.com/mellaniegambe/timecard/internal/imaging"
	"github.com/mellaniegambe/timecard/internal/model"
)

const (
	defaultEndpoint = "https://api.openai.com"
	defaultModel    = "gpt-4o-mini"
	defaultTimeout  = 2 * time.Minute
	completionsPath = "/v1/chat/completions"
)

const systemPrompt = `You read scanned employee time cards.
Answer with a single JSON object and nothing else, shaped as:
{
  "employee_information": {"<field_name>": "<value>", ...},
  "attendance_records": [
    {"date": "", "morning_in": "", "morning_out": "", "afternoon_in": "", "afternoon_out": "", "overtime_in": "", "overtime_out": ""}
  ],
  "total_hours": <number>
}
Use snake_case field names, keep the card's row order, and leave unreadable cells as empty strings.`

func init() {
	extractor.Register("openai", func(cfg extractor.Config) (extractor.Extractor, error) {
		return New(cfg)
	})
}

// Extractor calls the chat completions endpoint.
type Extractor struct {
	client *httpclient.Client
	model  string
	prompt string
	detail string
}

// New creates an Extractor. cfg.Extra may set "prompt" and "detail"
// (image detail level: low, high, auto).
func New(cfg extractor.Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: missing api key")
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	m := cfg.Model
	if m == "" {
		m = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	prompt := cfg.Extra["prompt"]
	if prompt == "" {
		prompt = systemPrompt
	}
	detail := cfg.Extra["detail"]
	if detail == "" {
		detail = "high"
	}
	return &Extractor{
		client: httpclient.New(endpoint, cfg.APIKey, httpclient.WithTimeout(timeout)),
		model:  m,
		prompt: prompt,
		detail: detail,
	}, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (e *Extractor) Extract(ctx context.Context, up model.Upload) (model.ExtractedData, error) {
	ct := up.ContentType
	if ct == "" {
		ct = "image/png"
	}
	req := chatRequest{
		Model:          e.model,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: e.prompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Extract the time card in this image."},
				{Type: "image_url", ImageURL: &imageURL{URL: imaging.DataURL(ct, up.Body), Detail: e.detail}},
			}},
		},
	}

	var resp chatResponse
	if err := e.client.PostJSON(ctx, completionsPath, req, nil, &resp); err != nil {
		return model.ExtractedData{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ExtractedData{}, fmt.Errorf("openai: empty response")
	}
	content := stripFences(resp.Choices[0].Message.Content)
	if content == "" {
		return model.ExtractedData{}, fmt.Errorf("openai: empty message (finish_reason=%s)", resp.Choices[0].FinishReason)
	}
	d, err := model.ParseExtracted([]byte(content))
	if err != nil {
		return model.ExtractedData{}, fmt.Errorf("openai: %w", err)
	}
	return d, nil
}

// stripFences removes a ```json ... ``` wrapper some models add.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
