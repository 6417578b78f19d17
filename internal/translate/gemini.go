package translate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the Gemini model used for translation.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini translates text through the Gemini API. Credentials come from the
// environment (GEMINI_API_KEY), same as the rest of the genai SDK.
type Gemini struct {
	model string
}

// NewGemini creates a Gemini-backed translator. An empty model selects
// DefaultGeminiModel.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{model: model}
}

// Translate implements the Translator interface.
func (g *Gemini) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following product description from %s to %s.\n"+
			"Return ONLY the translated text, no quotes, no explanations.\n\n%s",
		sourceLang, targetLang, text)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini translate: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini translate: generate content: %w", err)
	}

	out := stripFences(resp.Text())
	if out == "" {
		return "", ErrEmptyResult
	}
	return out, nil
}

// stripFences removes Markdown code fences the model sometimes wraps its
// answer in despite the instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

var _ Translator = (*Gemini)(nil)
