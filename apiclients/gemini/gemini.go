// Package gemini extracts statement documents from PDF bytes using the
// Google Gemini API. The model is sent the PDF inline together with an
// extraction prompt demanding strict JSON; cleaning up anything the model
// wraps around the JSON is left to the ingest parser.
package gemini

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// DefaultModel is fast and good at document extraction; override via
// configuration if a stronger model is needed.
const DefaultModel = "gemini-2.5-flash"

//go:embed extract.prompt
var extractPrompt string

// Extractor calls the Gemini API to turn statement PDFs into JSON documents.
// It satisfies ingest.Extractor.
type Extractor struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

// NewExtractor makes an Extractor. Credentials come from the environment
// (GEMINI_API_KEY, or the GOOGLE_GENAI_USE_VERTEXAI family for Vertex). An
// empty model selects DefaultModel.
func NewExtractor(ctx context.Context, model string, logger *slog.Logger) (*Extractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{
		client: client,
		model:  model,
		log:    logger,
	}, nil
}

// Extract sends the PDF to the model with the extraction prompt and returns
// the raw text of the response.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) (string, error) {

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{
					Text: extractPrompt,
				},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
			},
		},
	}

	e.log.Debug("extracting statement", "model", e.model, "pdf_bytes", len(pdf))
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", e.model)
	}
	return text, nil
}
