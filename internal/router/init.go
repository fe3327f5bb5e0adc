package router

import (
	"github.com/thriftly/thriftly/internal/application"
	"github.com/thriftly/thriftly/internal/container"
	handlers "github.com/thriftly/thriftly/internal/interface/http"
	"github.com/thriftly/thriftly/internal/router/modules"
	"github.com/thriftly/thriftly/pkg/helpers"
)

func buildServices() (*application.UserService, *application.ProductService) {
	cfg := container.GetConfig()

	users := &application.UserService{
		Repo:     container.GetUserRepo(),
		Products: container.GetProductRepo(),
		Hasher:   helpers.NewBcryptHasher(),
		JWT:      container.GetJWT(),
		Blobs:    container.GetBlobs(),
		Redis:    container.GetRedis(),
		Logger:   container.GetLogger(),
		Pub:      container.GetRabbitPub(),
	}

	products := &application.ProductService{
		Repo:    container.GetProductRepo(),
		Users:   container.GetUserRepo(),
		Logger:  container.GetLogger(),
		Pub:     container.GetRabbitPub(),
		ES:      container.GetES(),
		ESIndex: cfg.ESProductsIndex,
	}
	return users, products
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	jwt := container.GetJWT()
	logger := container.GetLogger()

	users, products := buildServices()

	authHandler := handlers.NewAuthHandler(users, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(users, products, logger)
	productHandler := handlers.NewProductHandler(products, container.GetBlobs(), logger)

	r.Add(modules.NewAuthModule(authHandler, jwt))
	r.Add(modules.NewUserModule(userHandler, jwt))
	r.Add(modules.NewProductModule(productHandler, jwt))
}
