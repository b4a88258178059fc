package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
)

type DosageHandler struct {
	store quota.Store
}

func NewDosageHandler(store quota.Store) *DosageHandler {
	return &DosageHandler{
		store: store,
	}
}

// Check godoc
// @Summary     Check remaining daily dosage
// @Description Returns the user's remaining generations for today. A record from a previous calendar day is reset to the daily allowance first.
// @Tags        dosage
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.DosageRequest true "User id"
// @Success     200 {object} models.DosageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /dosage/check [post]
func (h *DosageHandler) Check(c *gin.Context) {
	var req models.DosageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	status, err := h.store.Check(req.UID)
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to check dosage",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.DosageResponse{
		Dosage:      status.Dosage,
		CanGenerate: status.CanGenerate,
	})
}

// Consume godoc
// @Summary     Consume one generation from the daily dosage
// @Description Decrements the user's dosage by one. Fails with 400 when the dosage is already exhausted; the stored value is not mutated.
// @Tags        dosage
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.DosageRequest true "User id"
// @Success     200 {object} models.DosageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /dosage/consume [post]
func (h *DosageHandler) Consume(c *gin.Context) {
	var req models.DosageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	status, err := h.store.Consume(req.UID)
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
		return
	}
	if errors.Is(err, errs.ErrQuotaExhausted) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "dosage exhausted",
			Message: "no generations left today",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to consume dosage",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.DosageResponse{
		Dosage:      status.Dosage,
		CanGenerate: status.CanGenerate,
	})
}

// Reset godoc
// @Summary     Reset dosage to the daily allowance
// @Description Administrative reset that bypasses the calendar-day staleness check.
// @Tags        dosage
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.DosageRequest true "User id"
// @Success     200 {object} models.ResetDosageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /dosage/reset [post]
func (h *DosageHandler) Reset(c *gin.Context) {
	var req models.DosageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	status, resettime, err := h.store.Reset(req.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to reset dosage",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ResetDosageResponse{
		Dosage:    status.Dosage,
		Resettime: resettime,
	})
}
