package recognition

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const geminiQualityModel = "gemini-2.5-flash"

// GeminiQualityChecker judges photo quality with a Gemini vision model.
type GeminiQualityChecker struct {
	client *genai.Client
}

// NewGeminiQualityChecker creates a quality checker backed by the Gemini API.
func NewGeminiQualityChecker(ctx context.Context, apiKey string) (*GeminiQualityChecker, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiQualityChecker{client: client}, nil
}

func (p *GeminiQualityChecker) Name() string { return "gemini/" + geminiQualityModel }

// CheckQuality submits the photo with the quality prompt and parses the
// JSON verdict. API failures surface as ErrOracleUnavailable.
func (p *GeminiQualityChecker) CheckQuality(ctx context.Context, photo []byte) (*QualityResult, error) {
	resized, err := Downscale(photo, qualityUploadEdge)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: qualityCheckPrompt},
				{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	result, err := p.client.Models.GenerateContent(ctx, geminiQualityModel, contents, config)
	if err != nil {
		return nil, unavailable("Gemini API error: %v", err)
	}
	content := result.Text()
	if content == "" {
		return nil, unavailable("no response from Gemini")
	}

	return parseQualityVerdict(content)
}

var _ QualityChecker = (*GeminiQualityChecker)(nil)
