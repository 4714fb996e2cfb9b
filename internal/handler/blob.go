package handler

import (
	"Next_Express/internal/metrics"
	"Next_Express/internal/storage"
	"Next_Express/utils"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BlobHandler serves objects of a store that signs its own links.
type BlobHandler struct {
	store   storage.Store
	bucket  string
	logger  *zap.Logger
	metrics *metrics.Registry
}

func NewBlobHandler(store storage.Store, bucket string, logger *zap.Logger, m *metrics.Registry) *BlobHandler {
	return &BlobHandler{store: store, bucket: bucket, logger: logger, metrics: m}
}

// Signed handles GET /blobs?token=.
func (h *BlobHandler) Signed(c *gin.Context) {
	resolver, ok := storage.AsResolver(h.store)
	if !ok {
		utils.Fail(c, http.StatusNotFound, "Not found")
		return
	}
	bucket, key, err := resolver.Resolve(c.Query("token"))
	if err != nil {
		h.metrics.ObserveError("validation")
		utils.Fail(c, http.StatusForbidden, "Invalid or expired link")
		return
	}
	h.stream(c, bucket, key, "attachment")
}

// Public handles GET /public/*key for the publicly readable namespace.
func (h *BlobHandler) Public(c *gin.Context) {
	if _, ok := storage.AsResolver(h.store); !ok {
		utils.Fail(c, http.StatusNotFound, "Not found")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !storage.IsPublicKey(key) {
		utils.Fail(c, http.StatusNotFound, "Not found")
		return
	}
	h.stream(c, h.bucket, key, "inline")
}

func (h *BlobHandler) stream(c *gin.Context, bucket, key, disposition string) {
	object, info, err := h.store.GetObject(c.Request.Context(), bucket, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		utils.Fail(c, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		h.metrics.ObserveError("dependency")
		h.logger.Error("blob read failed", zap.String("key", key), zap.Error(err))
		utils.Fail(c, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer object.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := utils.SanitizeHeaderFilename(downloadName(key))
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, name))
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, object); err != nil {
		h.logger.Warn("blob download interrupted", zap.String("key", key), zap.Error(err))
	}
}

// downloadName drops the uuid prefix that FileKey puts before the name.
func downloadName(key string) string {
	base := path.Base(key)
	if strings.HasPrefix(key, storage.FilesPrefix) && len(base) > 37 && base[36] == '-' {
		return base[37:]
	}
	return base
}
