package gateway

import (
	"context"
	"time"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/observability"
)

// FallbackReply is what the user sees when the model cannot be used
const FallbackReply = "I am staying with this observation. What else do you notice?"

// HistoryTurns bounds how much of the transcript is sent along
const HistoryTurns = 10

// Metadata is the structured part of a model reply
type Metadata struct {
	DetectedFeelings []string `json:"detected_feelings"`
	DetectedThemes   []string `json:"detected_themes"`
	LinkedPrinciples []string `json:"linked_principles"`
	ShouldLog        bool     `json:"should_log"`
}

// Response is a reply plus what the model detected in the exchange
type Response struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Fallback is the neutral response used whenever the model fails
func Fallback() Response {
	return Response{
		Text: FallbackReply,
		Metadata: Metadata{
			DetectedFeelings: []string{},
			DetectedThemes:   []string{},
			LinkedPrinciples: []string{},
			ShouldLog:        false,
		},
	}
}

// Request is everything the gateway needs for one exchange
type Request struct {
	Message         string
	History         []domain.ChatMessage
	Books           []domain.Book
	Mode            domain.Mode
	ActiveChapterID string
}

// Model is a hosted generative model. Generate returns the raw reply text,
// expected to be the JSON object described by ResponseFormat.
type Model interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Gateway turns a chat turn into a structured response
type Gateway struct {
	model   Model
	timeout time.Duration
}

// Option configures a Gateway
type Option func(*Gateway)

// WithTimeout bounds each model call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// New creates a Gateway over model
func New(model Model, opts ...Option) *Gateway {
	g := &Gateway{model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModelName names the underlying model provider
func (g *Gateway) ModelName() string {
	return g.model.Name()
}

// Respond asks the model for a reply. It never fails: any call error or
// non-conforming output yields Fallback().
func (g *Gateway) Respond(ctx context.Context, req Request) Response {
	log := observability.LoggerFromContext(ctx).With(
		"provider", g.model.Name(),
		"mode", req.Mode,
		"history", len(req.History),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(req)

	start := time.Now()
	raw, err := g.model.Generate(ctx, prompt)
	observability.GatewayLatency.WithLabelValues(g.model.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("model call failed, using fallback", "error", err)
		return g.fallback("call_error")
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		log.Warn("model reply rejected, using fallback", "error", err)
		return g.fallback("malformed")
	}

	observability.GatewayRequests.WithLabelValues(g.model.Name(), "ok").Inc()
	log.Info("model replied",
		"should_log", resp.Metadata.ShouldLog,
		"feelings", len(resp.Metadata.DetectedFeelings),
		"themes", len(resp.Metadata.DetectedThemes),
	)
	return resp
}

func (g *Gateway) fallback(outcome string) Response {
	observability.GatewayRequests.WithLabelValues(g.model.Name(), outcome).Inc()
	return Fallback()
}
