package handler

import (
	"Next_Express/internal/metrics"
	"Next_Express/internal/service"
	"Next_Express/utils"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidForm = "Invalid form data"

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError writes {"error": msg} and records the failure.
func writeServiceError(c *gin.Context, logger *zap.Logger, m *metrics.Registry, err error) {
	status := statusFor(err)
	kind := service.Kind(err)
	m.ObserveError(kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("kind", kind),
			zap.Error(err))
		_ = c.Error(err)
	}
	utils.Fail(c, status, service.PublicMessage(err))
}

// limitBody caps the request body before multipart parsing.
func limitBody(c *gin.Context, max int64) {
	if max > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
	}
}

// bindError answers a form that could not be parsed.
func bindError(c *gin.Context, m *metrics.Registry, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		m.ObserveError("validation")
		utils.Fail(c, http.StatusRequestEntityTooLarge, "Upload too large")
		return
	}
	m.ObserveError("validation")
	utils.Fail(c, http.StatusBadRequest, msgInvalidForm)
}

// openUpload turns a multipart part into a service upload. Unless allowEmpty
// is set, an empty part counts as absent: browsers send one for an untouched
// file input.
func openUpload(fh *multipart.FileHeader, allowEmpty bool) (*service.Upload, func(), error) {
	if fh == nil || (fh.Size == 0 && !allowEmpty) {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = utils.ContentTypeByName(fh.Filename)
	}
	up := &service.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Reader:      f,
	}
	return up, func() { _ = f.Close() }, nil
}

// logCleanups records advisory cleanup failures against the request.
func logCleanups(c *gin.Context, logger *zap.Logger, outcomes []service.CleanupOutcome) {
	for _, o := range outcomes {
		if o.Failed() {
			logger.Warn("request left an orphaned blob",
				zap.String("route", c.FullPath()),
				zap.String("key", o.Key),
				zap.String("outcome", o.Outcome))
		}
	}
}
