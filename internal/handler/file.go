package handler

import (
	"Next_Express/internal/dto"
	"Next_Express/internal/metrics"
	"Next_Express/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileHandler serves the file routes of one backend.
type FileHandler struct {
	svc       *service.FileService
	logger    *zap.Logger
	metrics   *metrics.Registry
	maxUpload int64
}

func NewFileHandler(svc *service.FileService, logger *zap.Logger, m *metrics.Registry, maxUpload int64) *FileHandler {
	return &FileHandler{
		svc:       svc,
		logger:    logger.With(zap.String("backend", svc.Backend())),
		metrics:   m,
		maxUpload: maxUpload,
	}
}

// List handles GET /files. Every entry carries a fresh signed url or null.
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.svc.ListFiles(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Get handles GET /files/:id.
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.svc.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// Upload handles POST /files. An empty file is a valid upload.
func (h *FileHandler) Upload(c *gin.Context) {
	limitBody(c, h.maxUpload)
	var form dto.FileForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, h.metrics, err)
		return
	}
	up, closeUp, err := openUpload(form.File, true)
	if err != nil {
		bindError(c, h.metrics, err)
		return
	}
	defer closeUp()

	res, err := h.svc.UploadFile(c.Request.Context(), up)
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	logCleanups(c, h.logger, res.Cleanups)
	c.JSON(http.StatusCreated, res.File)
}

// Delete handles DELETE /files/:id.
func (h *FileHandler) Delete(c *gin.Context) {
	res, err := h.svc.DeleteFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	logCleanups(c, h.logger, res.Cleanups)
	c.JSON(http.StatusOK, dto.DeleteResponse{Success: true, Message: "File deleted successfully"})
}
