package gateway

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pbaille/reflect/internal/domain"
)

const defaultGeminiModel = "gemini-3-flash-preview"

// Gemini calls the Gemini API through the genai SDK, asking for a reply
// constrained by responseSchema.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	topP        float32
}

// NewGemini creates a Gemini model. An empty model name selects the default.
func NewGemini(ctx context.Context, apiKey, model string, temperature, topP float32) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       model,
		temperature: temperature,
		topP:        topP,
	}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

// Generate implements Model
func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(p), g.config(p))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func (g *Gemini) config(p Prompt) *genai.GenerateContentConfig {
	temp := g.temperature
	topP := g.topP
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	}
}

func geminiContents(p Prompt) []*genai.Content {
	contents := make([]*genai.Content, 0, len(p.History)+1)
	for _, t := range p.History {
		role := genai.Role(genai.RoleUser)
		if t.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return append(contents, genai.NewContentFromText(p.Message, genai.RoleUser))
}

func responseSchema() *genai.Schema {
	stringList := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text": {Type: genai.TypeString},
			"metadata": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"detected_feelings": stringList(),
					"detected_themes":   stringList(),
					"linked_principles": stringList(),
					"should_log":        {Type: genai.TypeBoolean},
				},
				Required: []string{"detected_feelings", "detected_themes", "linked_principles", "should_log"},
			},
		},
		Required: []string{"text", "metadata"},
	}
}
