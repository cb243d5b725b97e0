package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
)

const (
	anthropicAPI          = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// Anthropic calls the Anthropic messages API over plain HTTP
type Anthropic struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	temp     float64
}

// NewAnthropic creates an Anthropic model. An empty model name selects the default.
func NewAnthropic(apiKey, model string, temperature float64) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key not set")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	return &Anthropic{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicAPI,
		client:   http.DefaultClient,
		temp:     temperature,
	}, nil
}

func (a *Anthropic) Name() string {
	return "anthropic"
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Temperature float64      `json:"temperature"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt and returns the first text block of the reply
func (a *Anthropic) Generate(ctx context.Context, p Prompt) (string, error) {
	jsonBody, err := json.Marshal(a.buildRequest(p))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	for _, c := range apiResp.Content {
		if c.Type == "text" || c.Type == "" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("empty response")
}

// buildRequest maps the prompt onto the messages API. The API wants strictly
// alternating roles starting with user, so leading assistant turns are
// dropped and consecutive same-role turns are merged.
func (a *Anthropic) buildRequest(p Prompt) apiRequest {
	var msgs []apiMessage
	push := func(role, content string) {
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + content
			return
		}
		msgs = append(msgs, apiMessage{Role: role, Content: content})
	}

	for _, t := range p.History {
		role := "user"
		if t.Role == domain.RoleAssistant {
			role = "assistant"
		}
		if len(msgs) == 0 && role == "assistant" {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		push(role, t.Content)
	}
	push("user", p.Message)

	return apiRequest{
		Model:       a.model,
		MaxTokens:   2048,
		System:      p.System + "\n\n" + ResponseFormat,
		Temperature: a.temp,
		Messages:    msgs,
	}
}
