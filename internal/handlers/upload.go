package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/services"
)

type UploadHandler struct {
	uploader       services.Uploader
	placeholderURL string
}

func NewUploadHandler(uploader services.Uploader, placeholderURL string) *UploadHandler {
	return &UploadHandler{
		uploader:       uploader,
		placeholderURL: placeholderURL,
	}
}

// Upload godoc
// @Summary     Upload a reference image
// @Description Stores one multipart file in application storage and returns its public URL. On a storage-backend failure the request still succeeds, returning a placeholder URL with isFallback=true; such files are not durably stored.
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       uid formData string true "User id"
// @Param       file formData file true "Image file"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /file-upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	uid := c.PostForm("uid")
	if uid == "" {
		uid = "anonymous"
	}

	// Set max memory for multipart form (32MB)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	// Try multiple common field names
	var file *multipart.FileHeader
	for _, fieldName := range []string{"file", "image", "files", "images", "photo"} {
		if f := form.File[fieldName]; len(f) > 0 {
			file = f[0]
			break
		}
	}
	if file == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no file uploaded",
			Message: "provide a file under the 'file' field",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open file",
			Message: err.Error(),
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file",
			Message: err.Error(),
		})
		return
	}

	filename := uuid.New().String() + filepath.Ext(file.Filename)
	_, publicURL, err := h.uploader.UploadImage(uid, filename, data, mimeTypeFor(file.Filename))
	if err != nil {
		// Storage outages must not block the generation flow; hand back a
		// placeholder so the client can proceed, flagged as not durable.
		log.Printf("upload: storage failed for %s: %v", uid, err)
		c.JSON(http.StatusOK, models.UploadResponse{
			URL:        h.placeholderURL,
			IsFallback: true,
			Warning:    fmt.Sprintf("storage unavailable, file not persisted: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{URL: publicURL})
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/png"
	}
}
