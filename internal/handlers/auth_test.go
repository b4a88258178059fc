package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"poster-gen-backend/internal/handlers"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
)

func newAuthRouter(store quota.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewAuthHandler(store)
	router := gin.New()
	router.POST("/auth/verify", h.Verify)
	return router
}

func TestAuthHandler_VerifySeedsNewUser(t *testing.T) {
	store := quota.NewMemoryStore(10)
	router := newAuthRouter(store)

	w := postJSON(t, router, "/auth/verify", models.VerifyRequest{
		UID:   "u1",
		Phone: "+15550001234",
		Code:  "123456",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UID)
	assert.Equal(t, 10, resp.Dosage)
	assert.Equal(t, "verified", resp.Status)
}

func TestAuthHandler_VerifyKeepsExistingDosage(t *testing.T) {
	store := quota.NewMemoryStore(10)
	store.Seed("u1", 3, quota.Today())
	router := newAuthRouter(store)

	w := postJSON(t, router, "/auth/verify", models.VerifyRequest{
		UID:   "u1",
		Phone: "+15550001234",
		Code:  "123456",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Dosage)
}

func TestAuthHandler_VerifyMissingFields(t *testing.T) {
	router := newAuthRouter(quota.NewMemoryStore(10))

	w := postJSON(t, router, "/auth/verify", map[string]string{"uid": "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
