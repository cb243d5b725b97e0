package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/reflect/internal/api"
	"github.com/pbaille/reflect/internal/chat"
	"github.com/pbaille/reflect/internal/config"
	"github.com/pbaille/reflect/internal/gateway"
)

func TestServeWiring_NoAPIKey(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{
		Storage: config.Storage{Backend: "memory", Key: "state"},
		LLM:     config.LLM{Provider: "gemini"},
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	require.NoError(t, err)
	defer a.Close()

	svc, err := a.chatService(ctx)
	require.NoError(t, err)
	h := api.New(a.state, svc, ":0").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"I cannot sleep"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var turn chat.Turn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, gateway.FallbackReply, turn.Assistant.Content)
	assert.Nil(t, turn.Entry)
}
