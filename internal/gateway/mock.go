package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
)

// Mock is an offline model for local runs. It echoes the message and tags
// any corpus theme it finds in it.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

var mockFeelings = []string{"calm", "anxious", "hopeful", "grateful", "tired", "doubtful", "peaceful", "excited"}

var mockThemes = []string{"feeling", "subconscious", "assumption", "imagination", "faith", "identity", "sleep", "prayer"}

func (m *Mock) Generate(_ context.Context, p Prompt) (string, error) {
	lower := strings.ToLower(p.Message)

	meta := Metadata{
		DetectedFeelings: matching(lower, mockFeelings),
		DetectedThemes:   matching(lower, mockThemes),
		LinkedPrinciples: []string{},
	}
	meta.ShouldLog = len(meta.DetectedFeelings) > 0 || len(meta.DetectedThemes) > 0

	text := fmt.Sprintf("I hear you. You said %q. How does it feel to assume that state is already yours?", p.Message)
	if strings.Contains(p.System, "ACTIVE MODE IS: "+strings.ToUpper(string(domain.ModeStudy))) {
		text = fmt.Sprintf("Let us study this together. You asked %q. Which passage speaks to it most?", p.Message)
	}

	out, err := json.Marshal(Response{Text: text, Metadata: meta})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func matching(text string, vocabulary []string) []string {
	found := []string{}
	for _, w := range vocabulary {
		if strings.Contains(text, w) {
			found = append(found, w)
		}
	}
	return found
}
