package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

func newTestServer(t *testing.T, handler func(t *testing.T, r *http.Request, body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))

		status, reply := handler(t, r, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Generate_SchemaRequest(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]any) (int, string) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		cfg := body["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", cfg["responseMimeType"])
		sch := cfg["responseSchema"].(map[string]any)
		assert.Equal(t, "OBJECT", sch["type"])
		assert.Equal(t, []any{"name", "count"}, sch["propertyOrdering"])
		assert.Nil(t, body["tools"])

		return http.StatusOK, `{
			"candidates":[{"content":{"parts":[{"text":"{\"name\":"},{"text":"\"Борщ\"}"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15},
			"modelVersion":"gemini-2.5-flash-001"
		}`
	})

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	resp, err := c.Generate(context.Background(), outbound.GenerationRequest{
		Model:  "gemini-2.5-flash",
		Prompt: "рецепт",
		Schema: &outbound.Schema{
			Type:  outbound.SchemaObject,
			Order: []string{"name", "count"},
			Properties: map[string]*outbound.Schema{
				"name":  {Type: outbound.SchemaString},
				"count": {Type: outbound.SchemaNumber},
			},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"name":"Борщ"}`, resp.Text)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "gemini-2.5-flash-001", resp.Model)
}

func TestClient_Generate_LiveSearchUsesTool(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]any) (int, string) {
		tools := body["tools"].([]any)
		require.Len(t, tools, 1)
		assert.Contains(t, tools[0].(map[string]any), "googleSearch")
		assert.Nil(t, body["generationConfig"])

		return http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"thinking","thought":true},{"text":"{\"цукор\":1.2}"}]}}]}`
	})

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	resp, err := c.Generate(context.Background(), outbound.GenerationRequest{
		Model: "gemini-2.5-flash", Prompt: "ціни", JSON: true, LiveSearch: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"цукор":1.2}`, resp.Text)
}

func TestClient_Generate_NoCandidatesIsEmptyText(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]any) (int, string) {
		return http.StatusOK, `{"candidates":[]}`
	})

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	resp, err := c.Generate(context.Background(), outbound.GenerationRequest{Model: "m", Prompt: "p"})

	require.NoError(t, err)
	assert.Empty(t, resp.Text)
}

func TestClient_Generate_HTTPError(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, r *http.Request, body map[string]any) (int, string) {
		return http.StatusTooManyRequests, `{"error":{"message":"quota"}}`
	})

	c := NewClient(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	_, err := c.Generate(context.Background(), outbound.GenerationRequest{Model: "m", Prompt: "p"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_Credential(t *testing.T) {
	assert.False(t, NewClient(Config{}, zap.NewNop()).HasCredential())
	assert.True(t, NewClient(Config{APIKey: "k"}, zap.NewNop()).HasCredential())
	assert.True(t, NewClient(Config{}, zap.NewNop()).RequiresCredential())
}
