package imagegen_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"poster-gen-backend/internal/imagegen"
)

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"gen-1","model":"test-model","data":[{"url":"https://cdn.example.com/a.png"}]}`)
	}))
	defer server.Close()

	client := imagegen.NewClient(server.URL, "test-key", "test-model")
	resp, err := client.Generate(context.Background(), imagegen.GenerateRequest{
		Prompt: "grand opening poster",
		N:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", resp.ID)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "https://cdn.example.com/a.png", resp.Data[0].URL)
}

func TestClient_GenerateProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	defer server.Close()

	client := imagegen.NewClient(server.URL, "test-key", "test-model")
	_, err := client.Generate(context.Background(), imagegen.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_GenerateEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"gen-2","model":"test-model","data":[]}`)
	}))
	defer server.Close()

	client := imagegen.NewClient(server.URL, "test-key", "test-model")
	_, err := client.Generate(context.Background(), imagegen.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}

func TestClient_GenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"gen-3\",\"data\":[{\"url\":\"https://cdn.example.com/1.png\"}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"id\":\"gen-3\",\"data\":[{\"url\":\"https://cdn.example.com/1.png\"},{\"url\":\"https://cdn.example.com/2.png\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := imagegen.NewClient(server.URL, "test-key", "test-model")

	var chunks []*imagegen.GenerateResponse
	err := client.GenerateStream(context.Background(), imagegen.GenerateRequest{Prompt: "p", N: 2},
		func(chunk *imagegen.GenerateResponse) error {
			chunks = append(chunks, chunk)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Data, 1)
	assert.Len(t, chunks[1].Data, 2)
}

func TestClient_GenerateStreamEarlyStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"data\":[{\"url\":\"https://cdn.example.com/1.png\"}]}\n\n")
		fmt.Fprint(w, "data: {\"data\":[{\"url\":\"https://cdn.example.com/2.png\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := imagegen.NewClient(server.URL, "test-key", "test-model")

	stop := fmt.Errorf("stop")
	calls := 0
	err := client.GenerateStream(context.Background(), imagegen.GenerateRequest{Prompt: "p"},
		func(chunk *imagegen.GenerateResponse) error {
			calls++
			return stop
		})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestClient_RetryWithBackoff(t *testing.T) {
	client := imagegen.NewClient("https://api.test.com/v1/", "test-key", "test-model")

	callCount := 0
	err := client.RetryWithBackoff(func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestClient_RetryWithBackoff_Exhausted(t *testing.T) {
	client := imagegen.NewClient("https://api.test.com/v1/", "test-key", "test-model")

	err := client.RetryWithBackoff(func() error {
		return assert.AnError
	}, 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
