package handler

import (
	"Next_Express/internal/dto"
	"Next_Express/internal/metrics"
	"Next_Express/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves the user routes of one backend.
type UserHandler struct {
	svc       *service.UserService
	logger    *zap.Logger
	metrics   *metrics.Registry
	maxUpload int64
}

func NewUserHandler(svc *service.UserService, logger *zap.Logger, m *metrics.Registry, maxUpload int64) *UserHandler {
	return &UserHandler{
		svc:       svc,
		logger:    logger.With(zap.String("backend", svc.Backend())),
		metrics:   m,
		maxUpload: maxUpload,
	}
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	limitBody(c, h.maxUpload)
	var form dto.UserForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, h.metrics, err)
		return
	}
	pic, closePic, err := openUpload(form.ProfilePicture, false)
	if err != nil {
		bindError(c, h.metrics, err)
		return
	}
	defer closePic()

	res, err := h.svc.CreateUser(c.Request.Context(), service.CreateUserInput{
		Name:    form.Name,
		Email:   form.Email,
		Picture: pic,
	})
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	logCleanups(c, h.logger, res.Cleanups)
	c.JSON(http.StatusCreated, res.User)
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	limitBody(c, h.maxUpload)
	var form dto.UserForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, h.metrics, err)
		return
	}
	pic, closePic, err := openUpload(form.ProfilePicture, false)
	if err != nil {
		bindError(c, h.metrics, err)
		return
	}
	defer closePic()

	res, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
		Name:    form.Name,
		Email:   form.Email,
		Picture: pic,
	})
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	logCleanups(c, h.logger, res.Cleanups)
	c.JSON(http.StatusOK, res.User)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	res, err := h.svc.DeleteUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, h.metrics, err)
		return
	}
	logCleanups(c, h.logger, res.Cleanups)
	c.JSON(http.StatusOK, dto.DeleteResponse{Success: true, Message: "User deleted successfully"})
}
