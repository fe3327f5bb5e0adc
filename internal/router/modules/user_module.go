package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thriftly/thriftly/internal/container"
	handlers "github.com/thriftly/thriftly/internal/interface/http"
	"github.com/thriftly/thriftly/internal/interface/middleware"
	"github.com/thriftly/thriftly/pkg/helpers"
)

// UserModule wires profile, favorites, and dashboard routes.
// Public: GET /api/users/:id
// Protected: profile, avatar, favorites, my-products, dashboard
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.GET("/users/:id", m.Handler.GetPublicProfile)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/users/profile", m.Handler.GetProfile)
		auth.PUT("/users/profile", m.Handler.UpdateProfile)
		auth.POST("/users/avatar", m.Handler.UploadAvatar)
		auth.GET("/users/favorites", m.Handler.Favorites)
		auth.GET("/users/my-products", m.Handler.MyProducts)
		auth.GET("/users/dashboard", m.Handler.Dashboard)
	}
}
