package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/tubeindex/internal/config"
)

func TestOpenAIClientEmbedBatch(t *testing.T) {
	var gotReq OpenAIEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		// Respond out of order; the client must place vectors by index.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0.0,1.0]},
			{"object":"embedding","index":0,"embedding":[1.0,0.0]}
		],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(&config.OpenAIConfig{
		APIKey:   "sk-test",
		Endpoint: srv.URL + "/v1/",
		Model:    "text-embedding-3-small",
	})
	require.NoError(t, err)

	out, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	assert.Equal(t, "text-embedding-3-small", gotReq.Model)
	assert.Equal(t, 1536, client.Dimensions())
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(&config.OpenAIConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIClientCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(&config.OpenAIConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestOpenAIClientDimensionsByModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-large", 3072},
		{"text-embedding-3-small", 1536},
		{"text-embedding-ada-002", 1536},
		{"custom-model", 1536},
	}
	for _, tt := range tests {
		c, err := NewOpenAIClient(&config.OpenAIConfig{APIKey: "k", Model: tt.model})
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.Dimensions(), tt.model)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(&config.OpenAIConfig{})
	assert.Error(t, err)

	_, err = NewService(&config.EmbeddingConfig{Provider: "openai"})
	assert.Error(t, err)
}
