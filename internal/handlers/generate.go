package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/generation"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/services"
)

type GenerateHandler struct {
	orchestrator *services.Orchestrator
	states       generation.StateStore
}

func NewGenerateHandler(orchestrator *services.Orchestrator, states generation.StateStore) *GenerateHandler {
	return &GenerateHandler{
		orchestrator: orchestrator,
		states:       states,
	}
}

// Generate godoc
// @Summary     Generate poster images
// @Description Runs one quota-gated generation: checks the daily dosage, records an in-progress state, calls the image provider (parallel single-image requests, or one streaming request), re-hosts the results on application storage, appends a generation record, and consumes one dosage unit. Record and dosage failures are reported as warnings alongside the images.
// @Tags        generate
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateRequest true "Generation parameters"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	outcome, err := h.orchestrator.Run(c.Request.Context(), generation.Params{
		UID:             req.UID,
		Prompt:          req.Prompt,
		ReferenceImages: req.ReferenceImages,
		AspectRatio:     req.AspectRatio,
		ImageCount:      req.ImageCount,
		StreamEnabled:   req.Stream,
		ResponseFormat:  req.ResponseFormat,
	})

	switch {
	case err == nil:
	case errors.Is(err, errs.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "generation in progress",
			Message: "a generation is already running for this user",
		})
		return
	case errors.Is(err, errs.ErrQuotaExhausted):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "dosage exhausted",
			Message: "no generations left today",
		})
		return
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
		return
	case errors.Is(err, errs.ErrInvalidParams):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid parameters",
			Message: err.Error(),
		})
		return
	case errors.Is(err, errs.ErrProviderFailure):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "generation failed",
			Message: err.Error(),
		})
		return
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "generation failed",
			Message: err.Error(),
		})
		return
	}

	resp := models.GenerateResponse{
		UID:      req.UID,
		Images:   outcome.Images,
		Dosage:   outcome.Dosage,
		Warnings: outcome.Warnings,
	}
	if outcome.Record != nil {
		resp.Record = models.NewGenerationRecordResponse(outcome.Record)
	}

	c.JSON(http.StatusOK, resp)
}

// GetState godoc
// @Summary     Get the current generation state
// @Description Returns the user's in-progress or completed generation state, used by the app to resume after being backgrounded.
// @Tags        generate
// @Produce     json
// @Security    Bearer
// @Param       uid query string true "User id"
// @Success     200 {object} models.StateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /generate/state [get]
func (h *GenerateHandler) GetState(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uid is required"})
		return
	}

	state, err := h.states.Get(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get generation state",
			Message: err.Error(),
		})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no generation state"})
		return
	}

	c.JSON(http.StatusOK, models.StateResponse{
		UID:             state.UID,
		IsGenerating:    state.IsGenerating,
		IsCompleted:     state.IsCompleted,
		StartTime:       state.StartTime,
		Prompt:          state.Prompt,
		ReferenceImages: state.ReferenceImages,
		AspectRatio:     state.AspectRatio,
		ImageCount:      state.ImageCount,
		StreamEnabled:   state.StreamEnabled,
		ResponseFormat:  state.ResponseFormat,
	})
}

// ClearState godoc
// @Summary     Clear the current generation state
// @Description Deletes the user's generation state after the result has been consumed or dismissed. Clearing an absent state succeeds.
// @Tags        generate
// @Produce     json
// @Security    Bearer
// @Param       uid query string true "User id"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Router      /generate/state [delete]
func (h *GenerateHandler) ClearState(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uid is required"})
		return
	}

	if err := h.states.Clear(uid); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to clear generation state",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
