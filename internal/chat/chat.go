// Package chat runs one conversational turn: record the user's message,
// ask the gateway, record the reply and, when the model says so, keep the
// exchange in the journal.
package chat

import (
	"context"
	"strings"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/gateway"
	"github.com/pbaille/reflect/internal/observability"
	"github.com/pbaille/reflect/internal/state"
)

// Responder produces a reply for a turn. *gateway.Gateway satisfies it.
type Responder interface {
	Respond(ctx context.Context, req gateway.Request) gateway.Response
}

// Service ties the gateway to the state owner
type Service struct {
	state *state.Store
	gw    Responder
}

func NewService(st *state.Store, gw Responder) *Service {
	return &Service{state: st, gw: gw}
}

// Turn is the outcome of Send
type Turn struct {
	User      domain.ChatMessage   `json:"user"`
	Assistant domain.ChatMessage   `json:"assistant"`
	Metadata  gateway.Metadata     `json:"metadata"`
	Entry     *domain.JournalEntry `json:"journal_entry,omitempty"`
}

// Send runs a full turn. Only one turn may be in flight per store; a
// concurrent call gets state.ErrBusy. Persistence errors are returned
// with whatever part of the turn was recorded.
func (s *Service) Send(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, state.ErrEmptyMessage
	}
	if !s.state.TryBegin() {
		return Turn{}, state.ErrBusy
	}
	defer s.state.End()

	log := observability.LoggerFromContext(ctx)

	// the model sees the transcript as it was before this message
	before := s.state.Snapshot()
	mode := before.CurrentMode

	var turn Turn
	user, err := s.state.AppendMessage(ctx, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: text,
		Mode:    mode,
	})
	turn.User = user
	if err != nil {
		return turn, err
	}

	resp := s.gw.Respond(ctx, gateway.Request{
		Message:         text,
		History:         before.ActiveChat,
		Books:           before.Books,
		Mode:            mode,
		ActiveChapterID: before.ActiveChapterID,
	})
	turn.Metadata = resp.Metadata

	assistant, err := s.state.AppendMessage(ctx, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: resp.Text,
		Mode:    mode,
	})
	turn.Assistant = assistant
	if err != nil {
		return turn, err
	}

	if !resp.Metadata.ShouldLog {
		return turn, nil
	}

	entry, err := s.state.AddJournalEntry(ctx, journalEntry(before, mode, text, resp))
	if err != nil {
		return turn, err
	}
	turn.Entry = &entry
	log.Info("journal entry recorded",
		"entry_id", entry.ID,
		"themes", entry.DetectedThemes,
		"chapter", entry.LinkedChapter,
	)
	return turn, nil
}

func journalEntry(st *domain.AppState, mode domain.Mode, input string, resp gateway.Response) domain.JournalEntry {
	var bookID string
	if len(st.Books) > 0 {
		bookID = st.Books[0].Metadata.ID
	}
	return domain.JournalEntry{
		Mode:             mode,
		UserInput:        input,
		SystemResponse:   resp.Text,
		DetectedFeelings: resp.Metadata.DetectedFeelings,
		DetectedThemes:   resp.Metadata.DetectedThemes,
		LinkedBook:       bookID,
		LinkedChapter:    st.ActiveChapterID,
		LinkedPrinciples: resp.Metadata.LinkedPrinciples,
	}
}
