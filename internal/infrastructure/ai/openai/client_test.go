package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

func TestClient_Generate(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"a\":1}"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, zap.NewNop())

	resp, err := c.Generate(context.Background(), outbound.GenerationRequest{
		Model:  "gpt-4o-mini",
		Prompt: "hello",
		Schema: &outbound.Schema{Type: outbound.SchemaObject},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Text)
	assert.Equal(t, 42, resp.TokensUsed)

	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestClient_Generate_JSONObjectAndErrors(t *testing.T) {
	status := http.StatusOK
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, zap.NewNop())

	resp, err := c.Generate(context.Background(), outbound.GenerationRequest{Model: "m", Prompt: "JSON", JSON: true, LiveSearch: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)

	status = http.StatusUnauthorized
	_, err = c.Generate(context.Background(), outbound.GenerationRequest{Model: "m", Prompt: "p"})
	assert.ErrorContains(t, err, "401")
}
