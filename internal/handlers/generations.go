package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/supabase"
)

type GenerationsHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewGenerationsHandler(dbClient *supabase.DatabaseClient) *GenerationsHandler {
	return &GenerationsHandler{
		dbClient: dbClient,
	}
}

// CreateWithResult godoc
// @Summary     Create a generation record with result URLs
// @Description Appends one record holding the prompt, the joined reference-image list, and up to 4 result URLs. Records are never updated by this endpoint.
// @Tags        user-generations
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateWithResultRequest true "Record fields"
// @Success     200 {object} models.GenerationRecordResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /user-generations/with-result [post]
func (h *GenerationsHandler) CreateWithResult(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.CreateWithResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	urls := []string{req.GImgURL1, req.GImgURL2, req.GImgURL3, req.GImgURL4}
	record, err := h.dbClient.CreateGenerationWithResult(req.UID, req.Prompt, req.RefImg, urls)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create record",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.NewGenerationRecordResponse(record))
}

// List godoc
// @Summary     List generation records
// @Description Returns a user's generation records, newest first. Used with limit=1 to resume the latest completed generation.
// @Tags        user-generations
// @Produce     json
// @Security    Bearer
// @Param       uid query string true "User id"
// @Param       limit query int false "Maximum records to return (default 1)"
// @Success     200 {object} models.GenerationListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /user-generations [get]
func (h *GenerationsHandler) List(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uid is required"})
		return
	}

	limit := 1
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.dbClient.GetLatestGenerations(uid, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list records",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.GenerationRecordResponse, len(records))
	for i := range records {
		responses[i] = *models.NewGenerationRecordResponse(&records[i])
	}

	c.JSON(http.StatusOK, models.GenerationListResponse{Records: responses})
}

// UpdateDownload godoc
// @Summary     Patch the download image onto the latest record
// @Description Sets download_img on the most recently created record for the uid. Older records are never touched.
// @Tags        user-generations
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateDownloadRequest true "User id and download URL"
// @Success     200 {object} models.GenerationRecordResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /user-generations/update-download [put]
func (h *GenerationsHandler) UpdateDownload(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var req models.UpdateDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	record, err := h.dbClient.UpdateDownloadImage(req.UID, req.DownloadImg)
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no records for user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to update record",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.NewGenerationRecordResponse(record))
}

// DeleteByUID godoc
// @Summary     Delete all records for a user
// @Tags        user-generations
// @Produce     json
// @Security    Bearer
// @Param       uid path string true "User id"
// @Success     200 {object} map[string]interface{}
// @Failure     500 {object} models.ErrorResponse
// @Router      /user-generations/{uid} [delete]
func (h *GenerationsHandler) DeleteByUID(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	uid := c.Param("uid")
	deleted, err := h.dbClient.DeleteGenerationsByUID(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete records",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "count": deleted})
}

// ClearAll godoc
// @Summary     Delete every generation record
// @Description Administrative operation.
// @Tags        user-generations
// @Produce     json
// @Security    Bearer
// @Success     200 {object} map[string]string
// @Failure     500 {object} models.ErrorResponse
// @Router      /user-generations [delete]
func (h *GenerationsHandler) ClearAll(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	if err := h.dbClient.ClearAllGenerations(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to clear records",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
