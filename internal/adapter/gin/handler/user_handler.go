package handler

import (
	"net/http"
	"strconv"

	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest is the JSON body accepted by POST and PUT.
// Password is write-only: it is accepted here and never appears in a response.
type UserRequest struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r UserRequest) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Age:       r.Age,
		Email:     r.Email,
		Password:  r.Password,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GetAllUsers handles GET /api/users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.uc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.PublicList(users))
}

// GetUserByID handles GET /api/users/:id. An unknown id yields 200 with a null body.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	u, found, err := h.uc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, u.Public())
}

// AddUser handles POST /api/users
func (h *UserHandler) AddUser(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}

	saved, err := h.uc.AddUser(c.Request.Context(), req.toDomain())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved.Public())
}

// UpdateUser handles PUT /api/users. The id travels in the body.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}

	saved, err := h.uc.UpdateUser(c.Request.Context(), req.toDomain())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved.Public())
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", idStr), zap.Error(err))
		h.handleError(c, pkgerrors.NewValidationError("id", "must be a valid number"))
		return 0, false
	}
	return id, true
}

func (h *UserHandler) bindUser(c *gin.Context) (UserRequest, bool) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user body", zap.Error(err))
		h.handleError(c, pkgerrors.NewValidationError("body", err.Error()))
		return UserRequest{}, false
	}
	return req, true
}

// handleError converts errors to HTTP responses. Only malformed input is a client error.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	if pkgerrors.IsValidation(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
		return
	}

	logger.WithContext(c.Request.Context(), h.log).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
