package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"pmo_suite/pkg/core/utils"
)

// spendCategories is the fixed taxonomy the categorizer chooses from.
var spendCategories = []string{
	"labor", "travel", "equipment", "software", "subcontract",
	"facilities", "training", "materials", "other",
}

const categorizerSystemPrompt = `You categorize program expenditure records.
Respond with JSON only: {"category": "<one of the allowed categories>", "confidence": <0..1>}.`

// categorization is the JSON shape the model must produce.
type categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Categorizer assigns spend categories to transaction descriptions using
// the Gemini API (generative-ai-go SDK).
type Categorizer struct {
	ModelName string
}

// NewCategorizer creates a categorizer. An empty model name uses the
// default flash model.
func NewCategorizer(modelName string) *Categorizer {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &Categorizer{ModelName: modelName}
}

// Categorize returns a category from the fixed taxonomy plus the model's
// confidence. Model output goes through the repair pipeline before
// decode: LLMs routinely emit almost-JSON.
func (c *Categorizer) Categorize(ctx context.Context, description string, amount float64) (string, float64, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", 0, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.ModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(categorizerSystemPrompt)},
	}
	model.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf("Allowed categories: %v\nDescription: %q\nAmount: %.2f", spendCategories, description, amount)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", 0, fmt.Errorf("categorization request failed: %w", err)
	}
	raw := responseText(resp)

	var result categorization
	if _, err := utils.SmartParse(raw, &result); err != nil {
		return "", 0, fmt.Errorf("failed to parse categorization %q: %w", raw, err)
	}
	if !validCategory(result.Category) {
		result.Category = "other"
	}
	return result.Category, result.Confidence, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	out := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}

func validCategory(c string) bool {
	for _, known := range spendCategories {
		if c == known {
			return true
		}
	}
	return false
}
