package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"poster-gen-backend/internal/generation"
	"poster-gen-backend/internal/handlers"
	"poster-gen-backend/internal/imagegen"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
	"poster-gen-backend/internal/services"
)

type stubProvider struct{}

func (stubProvider) Generate(_ context.Context, _ imagegen.GenerateRequest) (*imagegen.GenerateResponse, error) {
	return &imagegen.GenerateResponse{
		Data: []imagegen.ImageData{{URL: "https://provider.example.com/poster.png"}},
	}, nil
}

func (stubProvider) GenerateStream(_ context.Context, _ imagegen.GenerateRequest, onChunk func(*imagegen.GenerateResponse) error) error {
	return onChunk(&imagegen.GenerateResponse{
		Data: []imagegen.ImageData{{URL: "https://provider.example.com/poster.png"}},
	})
}

func (stubProvider) Model() string { return "test-model" }

func (stubProvider) RetryWithBackoff(fn func() error, _ int) error { return fn() }

type identityReconciler struct{}

func (identityReconciler) Reconcile(_ context.Context, _ string, images []string) []string {
	return images
}

func newGenerateRouter(states generation.StateStore, quotaStore quota.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orch := services.NewOrchestrator(
		stubProvider{}, quotaStore, states, services.NoopRecordStore{}, identityReconciler{}, nil)
	h := handlers.NewGenerateHandler(orch, states)
	router := gin.New()
	router.POST("/generate", h.Generate)
	router.GET("/generate/state", h.GetState)
	router.DELETE("/generate/state", h.ClearState)
	return router
}

func TestGenerateHandler_Success(t *testing.T) {
	quotaStore := quota.NewMemoryStore(10)
	quotaStore.Seed("u1", 10, quota.Today())
	router := newGenerateRouter(generation.NewMemoryStore(), quotaStore)

	w := postJSON(t, router, "/generate", models.GenerateRequest{
		UID:    "u1",
		Prompt: "grand opening sale",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UID)
	assert.Equal(t, []string{"https://provider.example.com/poster.png"}, resp.Images)
	assert.Equal(t, 9, resp.Dosage)
	// Records go through the no-op store here, which surfaces as a warning.
	assert.NotEmpty(t, resp.Warnings)
}

func TestGenerateHandler_Conflict(t *testing.T) {
	states := generation.NewMemoryStore()
	require.NoError(t, states.Start(generation.Params{UID: "u1", Prompt: "running", ImageCount: 1}))
	quotaStore := quota.NewMemoryStore(10)
	quotaStore.Seed("u1", 10, quota.Today())
	router := newGenerateRouter(states, quotaStore)

	w := postJSON(t, router, "/generate", models.GenerateRequest{UID: "u1", Prompt: "p"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerateHandler_QuotaExhausted(t *testing.T) {
	quotaStore := quota.NewMemoryStore(10)
	quotaStore.Seed("u1", 0, quota.Today())
	router := newGenerateRouter(generation.NewMemoryStore(), quotaStore)

	w := postJSON(t, router, "/generate", models.GenerateRequest{UID: "u1", Prompt: "p"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "dosage exhausted")
}

func TestGenerateHandler_UnknownUser(t *testing.T) {
	router := newGenerateRouter(generation.NewMemoryStore(), quota.NewMemoryStore(10))

	w := postJSON(t, router, "/generate", models.GenerateRequest{UID: "stranger", Prompt: "p"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateHandler_GetState(t *testing.T) {
	states := generation.NewMemoryStore()
	require.NoError(t, states.Start(generation.Params{
		UID:        "u1",
		Prompt:     "summer festival",
		ImageCount: 2,
	}))
	quotaStore := quota.NewMemoryStore(10)
	router := newGenerateRouter(states, quotaStore)

	req, _ := http.NewRequest("GET", "/generate/state?uid=u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UID)
	assert.True(t, resp.IsGenerating)
	assert.Equal(t, "summer festival", resp.Prompt)
	assert.Equal(t, 2, resp.ImageCount)
}

func TestGenerateHandler_GetStateAbsent(t *testing.T) {
	router := newGenerateRouter(generation.NewMemoryStore(), quota.NewMemoryStore(10))

	req, _ := http.NewRequest("GET", "/generate/state?uid=u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateHandler_ClearState(t *testing.T) {
	states := generation.NewMemoryStore()
	require.NoError(t, states.Start(generation.Params{UID: "u1", Prompt: "p", ImageCount: 1}))
	router := newGenerateRouter(states, quota.NewMemoryStore(10))

	req, _ := http.NewRequest("DELETE", "/generate/state?uid=u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	state, err := states.Get("u1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestGenerateHandler_ClearStateMissingUID(t *testing.T) {
	router := newGenerateRouter(generation.NewMemoryStore(), quota.NewMemoryStore(10))

	req, _ := http.NewRequest("DELETE", "/generate/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
