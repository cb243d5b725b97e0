package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/pbaille/reflect/internal/corpus"
	"github.com/pbaille/reflect/internal/domain"
)

// scriptedModel returns a fixed reply and records the prompt it saw
type scriptedModel struct {
	reply string
	err   error
	seen  Prompt
	wait  bool
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(ctx context.Context, p Prompt) (string, error) {
	m.seen = p
	if m.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.reply, m.err
}

const validReply = `{
  "text": "Notice the feeling beneath the wish.",
  "metadata": {
    "detected_feelings": ["anxious", "hopeful", "anxious"],
    "detected_themes": ["feeling"],
    "linked_principles": ["Feeling is the Secret"],
    "should_log": true
  }
}`

func TestRespond_ValidReply(t *testing.T) {
	g := New(&scriptedModel{reply: validReply})

	resp := g.Respond(context.Background(), Request{Message: "hi", Mode: domain.ModeReflection})

	assert.Equal(t, "Notice the feeling beneath the wish.", resp.Text)
	assert.Equal(t, []string{"anxious", "hopeful"}, resp.Metadata.DetectedFeelings)
	assert.Equal(t, []string{"feeling"}, resp.Metadata.DetectedThemes)
	assert.True(t, resp.Metadata.ShouldLog)
}

func TestRespond_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		model *scriptedModel
	}{
		{name: "call error", model: &scriptedModel{err: errors.New("boom")}},
		{name: "non-JSON", model: &scriptedModel{reply: "I think you are doing great."}},
		{name: "broken JSON", model: &scriptedModel{reply: `{"text": "hi", "metadata": {`}},
		{name: "missing should_log", model: &scriptedModel{reply: `{"text":"hi","metadata":{"detected_feelings":[],"detected_themes":[],"linked_principles":[]}}`}},
		{name: "missing metadata", model: &scriptedModel{reply: `{"text":"hi"}`}},
		{name: "blank text", model: &scriptedModel{reply: `{"text":"  ","metadata":{"detected_feelings":[],"detected_themes":[],"linked_principles":[],"should_log":true}}`}},
		{name: "wrong types", model: &scriptedModel{reply: `{"text":"hi","metadata":{"detected_feelings":"calm","detected_themes":[],"linked_principles":[],"should_log":true}}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.model)

			resp := g.Respond(context.Background(), Request{Message: "hello"})

			assert.Equal(t, FallbackReply, resp.Text)
			assert.False(t, resp.Metadata.ShouldLog)
			assert.Empty(t, resp.Metadata.DetectedFeelings)
			assert.Empty(t, resp.Metadata.DetectedThemes)
			assert.Empty(t, resp.Metadata.LinkedPrinciples)
		})
	}
}

func TestRespond_TimeoutFallsBack(t *testing.T) {
	g := New(&scriptedModel{wait: true}, WithTimeout(10*time.Millisecond))

	resp := g.Respond(context.Background(), Request{Message: "hello"})

	assert.Equal(t, Fallback(), resp)
}

func TestRespond_BoundsHistory(t *testing.T) {
	var history []domain.ChatMessage
	for i := 0; i < 15; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		history = append(history, domain.ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	model := &scriptedModel{reply: validReply}

	New(model).Respond(context.Background(), Request{Message: "latest", History: history, Mode: domain.ModeStudy})

	require.Len(t, model.seen.History, HistoryTurns)
	assert.Equal(t, "m5", model.seen.History[0].Content)
	assert.Equal(t, "m14", model.seen.History[HistoryTurns-1].Content)
	assert.Equal(t, "latest", model.seen.Message)
	assert.Contains(t, model.seen.System, "THE CURRENT ACTIVE MODE IS: STUDY.")
}

func TestBuildPrompt_CorpusContext(t *testing.T) {
	books, err := corpus.Books()
	require.NoError(t, err)

	p := BuildPrompt(Request{Message: "x", Books: books, ActiveChapterID: "ch_02"})

	assert.Contains(t, p.System, "Book: Feeling Is the Secret by Neville Goddard")
	assert.Contains(t, p.System, "Sleep [ACTIVE CHAPTER]")
	assert.Contains(t, p.System, `Principle "Feeling is the Secret"`)
	assert.Contains(t, p.System, "THE CURRENT ACTIVE MODE IS: FREE.")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bare", content: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", content: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", content: "Sure! {\"a\":1} hope it helps", want: `{"a":1}`},
		{name: "trailing comma", content: `{"a":[1,2,],}`, want: `{"a":[1,2]}`},
		{name: "none", content: "no json here", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestParseResponse_Fenced(t *testing.T) {
	resp, err := ParseResponse("```json\n" + validReply + "\n```")

	require.NoError(t, err)
	assert.Equal(t, []string{"Feeling is the Secret"}, resp.Metadata.LinkedPrinciples)
}

func TestParseResponse_ValidReplyKeepsText(t *testing.T) {
	reply := `{"text": "Notice the list: [calm, ] and {joy, }.", "metadata": {"detected_feelings": [], "detected_themes": [], "linked_principles": [], "should_log": false}}`

	resp, err := ParseResponse("  " + reply + "\n")

	require.NoError(t, err)
	assert.Equal(t, "Notice the list: [calm, ] and {joy, }.", resp.Text)
}

func TestParseResponse_RepairsTrailingCommas(t *testing.T) {
	reply := "Here you go:\n" + `{"text": "ok", "metadata": {"detected_feelings": ["calm",], "detected_themes": [], "linked_principles": [], "should_log": true,},}`

	resp, err := ParseResponse(reply)

	require.NoError(t, err)
	assert.Equal(t, []string{"calm"}, resp.Metadata.DetectedFeelings)
	assert.True(t, resp.Metadata.ShouldLog)
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := ParseResponse("nope")

	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAnthropic_Generate(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"content":[{"type":"text","text":%q}]}`, validReply)
	}))
	defer srv.Close()

	a, err := NewAnthropic("test-key", "", 0.3)
	require.NoError(t, err)
	a.endpoint = srv.URL

	g := New(a)
	resp := g.Respond(context.Background(), Request{
		Message: "I feel anxious",
		History: []domain.ChatMessage{
			{Role: domain.RoleAssistant, Content: "welcome"},
			{Role: domain.RoleUser, Content: "hello"},
			{Role: domain.RoleUser, Content: "again"},
			{Role: domain.RoleAssistant, Content: "yes?"},
		},
	})

	assert.True(t, resp.Metadata.ShouldLog)
	assert.Equal(t, defaultAnthropicModel, got.Model)
	assert.Contains(t, got.System, "Return ONLY the JSON")
	require.Len(t, got.Messages, 3)
	assert.Equal(t, apiMessage{Role: "user", Content: "hello\n\nagain"}, got.Messages[0])
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, apiMessage{Role: "user", Content: "I feel anxious"}, got.Messages[2])
}

func TestAnthropic_ErrorStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, err := NewAnthropic("test-key", "", 0.3)
	require.NoError(t, err)
	a.endpoint = srv.URL

	assert.Equal(t, Fallback(), New(a).Respond(context.Background(), Request{Message: "hi"}))
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	_, err := NewAnthropic("", "", 0)

	assert.Error(t, err)
}

func TestGeminiContentsAndSchema(t *testing.T) {
	contents := geminiContents(Prompt{
		History: []Turn{{Role: domain.RoleUser, Content: "a"}, {Role: domain.RoleAssistant, Content: "b"}},
		Message: "c",
	})

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "c", contents[2].Parts[0].Text)

	schema := responseSchema()
	assert.ElementsMatch(t, []string{"text", "metadata"}, schema.Required)
	assert.Len(t, schema.Properties["metadata"].Required, 4)
}

func TestMock_TagsVocabulary(t *testing.T) {
	raw, err := NewMock().Generate(context.Background(), Prompt{Message: "I feel anxious before sleep"})
	require.NoError(t, err)

	resp, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"anxious"}, resp.Metadata.DetectedFeelings)
	assert.Equal(t, []string{"sleep"}, resp.Metadata.DetectedThemes)
	assert.True(t, resp.Metadata.ShouldLog)
	assert.True(t, strings.HasPrefix(resp.Text, "I hear you."))
}

func TestNewModel_MissingKeyFallsBack(t *testing.T) {
	for _, provider := range []string{"", "gemini", "anthropic"} {
		t.Run(provider, func(t *testing.T) {
			m, err := NewModel(context.Background(), ModelConfig{Provider: provider})
			require.NoError(t, err)

			_, err = m.Generate(context.Background(), Prompt{Message: "hi"})
			assert.ErrorIs(t, err, ErrNoAPIKey)
			assert.Equal(t, Fallback(), New(m).Respond(context.Background(), Request{Message: "hi"}))
		})
	}
}

func TestNewModel_Unknown(t *testing.T) {
	_, err := NewModel(context.Background(), ModelConfig{Provider: "nope"})

	assert.Error(t, err)
}
