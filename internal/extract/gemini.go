package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"docsplit/pkg/contracts/domain"
)

const extractorSystemPrompt = "You are a document field extraction engine. You receive a single page of a scanned document and return the fields you can read from it as structured JSON. Accuracy matters more than coverage: only report fields you can actually read."

const extractorUserPrompt = `Extract every labeled field from the provided page.

Return ONLY a JSON object with this exact shape, no prose and no code fences:
{
  "fields": {
    "<field name>": {
      "kind": "string|number|date|boolean",
      "content": "<the raw text as printed on the page>",
      "confidence": <0.0-1.0>,
      "value": <the typed value: string, number, or boolean>
    }
  }
}

Field names must be lowercased with underscores. Dates keep their printed
text in "content" and an ISO 8601 string in "value". If a field is printed
but unreadable, omit it entirely.`

// geminiField is the wire shape one field takes in the model's JSON reply.
type geminiField struct {
	Kind       string      `json:"kind"`
	Content    string      `json:"content"`
	Confidence float64     `json:"confidence"`
	Value      interface{} `json:"value"`
}

type geminiReply struct {
	Fields map[string]geminiField `json:"fields"`
}

// GeminiExtractor extracts page fields with a Vertex AI generative model.
type GeminiExtractor struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewGeminiExtractor builds the client and configures the model for
// deterministic JSON output.
func NewGeminiExtractor(ctx context.Context, projectID, region, modelName string, logger *slog.Logger) (*GeminiExtractor, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("projectID and region are required for the gemini extractor")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extractorSystemPrompt)},
	}
	temperature := float32(0)
	model.Temperature = &temperature
	model.ResponseMIMEType = "application/json"

	return &GeminiExtractor{
		client: client,
		model:  model,
		logger: logger.With(slog.String("component", "extractor")),
	}, nil
}

func (e *GeminiExtractor) ExtractPage(ctx context.Context, page []byte) (map[string]domain.FieldValue, error) {
	pagePart := genai.Blob{MIMEType: "application/pdf", Data: page}

	resp, err := e.model.GenerateContent(ctx, pagePart, genai.Text(extractorUserPrompt))
	if err != nil {
		return nil, fmt.Errorf("analyze page: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return nil, fmt.Errorf("model returned no text content")
	}

	var reply geminiReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("decode extraction reply: %w", err)
	}

	fields := make(map[string]domain.FieldValue, len(reply.Fields))
	for name, f := range reply.Fields {
		fields[name] = domain.FieldValue{
			Kind:       parseKind(f.Kind),
			Content:    f.Content,
			Confidence: f.Confidence,
			TypedValue: f.Value,
		}
	}
	return fields, nil
}

// Close releases the underlying client.
func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

// parseKind maps the model's kind string onto a known FieldKind with an
// explicit unknown fallback.
func parseKind(kind string) domain.FieldKind {
	switch domain.FieldKind(kind) {
	case domain.FieldKindString, domain.FieldKindNumber, domain.FieldKindDate, domain.FieldKindBoolean:
		return domain.FieldKind(kind)
	}
	return domain.FieldKindUnknown
}
