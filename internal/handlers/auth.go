package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
)

type AuthHandler struct {
	store quota.Store
}

func NewAuthHandler(store quota.Store) *AuthHandler {
	return &AuthHandler{
		store: store,
	}
}

// Verify godoc
// @Summary     Complete phone-number verification
// @Description Confirms a phone login and seeds the user's dosage record with the daily allowance if it does not exist yet. Re-verifying never resets an existing dosage.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.VerifyRequest true "User id, phone and verification code"
// @Success     200 {object} models.VerifyResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	// Code delivery and checking is handled by Supabase Auth upstream; this
	// endpoint only bootstraps the per-user dosage record.
	if err := h.store.Ensure(req.UID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to initialize dosage",
			Message: err.Error(),
		})
		return
	}

	status, err := h.store.Check(req.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read dosage",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.VerifyResponse{
		UID:    req.UID,
		Dosage: status.Dosage,
		Status: "verified",
	})
}
