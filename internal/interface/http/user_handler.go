package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thriftly/thriftly/internal/application"
	"github.com/thriftly/thriftly/internal/interface/middleware"
	"github.com/thriftly/thriftly/pkg/response"
	"github.com/thriftly/thriftly/pkg/validation"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Users    *application.UserService
	Products *application.ProductService
	Logger   *logrus.Logger
}

func NewUserHandler(users *application.UserService, products *application.ProductService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Products: products, Logger: logger}
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	Location  *string `json:"location"`
	Phone     *string `json:"phone"`
}

// GetProfile GET /api/users/profile (auth required)
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Users.GetProfile(middleware.UserID(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// UpdateProfile PUT /api/users/profile (auth required)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), middleware.UserID(c), application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Location:  req.Location,
		Phone:     req.Phone,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile updated", nil)
}

// UploadAvatar POST /api/users/avatar (auth required, multipart)
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusBadRequest, "avatar too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Users.UploadAvatar(c.Request.Context(), middleware.UserID(c), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar": url}, "avatar updated", nil)
}

// Favorites GET /api/users/favorites (auth required)
func (h *UserHandler) Favorites(c *gin.Context) {
	items, err := h.Users.Favorites(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, "favorites", nil)
}

// MyProducts GET /api/users/my-products (auth required)
func (h *UserHandler) MyProducts(c *gin.Context) {
	items, err := h.Products.ListBySeller(c.Request.Context(), middleware.UserID(c), false)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, "my products", nil)
}

// Dashboard GET /api/users/dashboard (auth required)
func (h *UserHandler) Dashboard(c *gin.Context) {
	u, latest, favorites, stats, err := h.Users.Dashboard(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":             u,
		"stats":            stats,
		"latest_products":  latest,
		"latest_favorites": favorites,
	}, "dashboard", nil)
}

// GetPublicProfile GET /api/users/:id
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	view, err := h.Users.PublicProfile(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view, "user profile", nil)
}
