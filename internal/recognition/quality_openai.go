package recognition

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

//go:embed prompts/quality_check.txt
var qualityCheckPrompt string

const openAIQualityModel = openai.ChatModelGPT4_1Mini

// qualityUploadEdge keeps quality-check uploads small; the verdict does not
// need full resolution.
const qualityUploadEdge = 800

// OpenAIQualityChecker judges photo quality with an OpenAI vision model.
type OpenAIQualityChecker struct {
	client *openai.Client
}

// NewOpenAIQualityChecker creates a quality checker backed by OpenAI.
func NewOpenAIQualityChecker(token string) *OpenAIQualityChecker {
	client := openai.NewClient(option.WithAPIKey(token))
	return &OpenAIQualityChecker{client: &client}
}

func (p *OpenAIQualityChecker) Name() string { return "openai/" + openAIQualityModel }

// CheckQuality submits the photo with the quality prompt and parses the
// JSON verdict. API failures surface as ErrOracleUnavailable so the quality
// gate can apply its fail-open policy.
func (p *OpenAIQualityChecker) CheckQuality(ctx context.Context, photo []byte) (*QualityResult, error) {
	resized, err := Downscale(photo, qualityUploadEdge)
	if err != nil {
		return nil, err
	}
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resized)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openAIQualityModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(qualityCheckPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart("Judge this enrollment photo."),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "low",
							}),
						},
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		return nil, unavailable("OpenAI API error: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, unavailable("no response from OpenAI")
	}

	return parseQualityVerdict(resp.Choices[0].Message.Content)
}

// parseQualityVerdict decodes the model's JSON verdict, tolerating code fences.
func parseQualityVerdict(content string) (*QualityResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result QualityResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, unavailable("could not parse quality verdict: %v", err)
	}
	return &result, nil
}

var _ QualityChecker = (*OpenAIQualityChecker)(nil)
