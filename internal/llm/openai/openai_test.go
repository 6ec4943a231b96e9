package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/config"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "describe a quest", req.Messages[1].Content)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"description\":\"Brave the arena\"}"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	c, err := NewClient(&config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1/", Timeout: 5})
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), "be brief", "describe a quest")
	require.NoError(t, err)
	assert.Equal(t, `{"description":"Brave the arena"}`, got)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(&config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
			require.NoError(t, err)
			_, err = c.Generate(context.Background(), "", "x")
			assert.Error(t, err)
		})
	}
}

func TestIsModelAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"gpt-4o-mini"},{"id":"gpt-4o"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(&config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, c.IsModelAvailable(context.Background()))

	c.config.Model = "o9"
	assert.ErrorContains(t, c.IsModelAvailable(context.Background()), "model o9 not found")
}
