package router

import "github.com/gin-gonic/gin"

// Module is a feature area that mounts its own routes under the API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects feature modules and shared middleware, then mounts
// everything under /api in one pass.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	chain   []gin.HandlerFunc
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Use appends middleware applied to the whole API group before any module
// routes. Call before RegisterAll.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.chain = append(r.chain, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll wires the shared chain and every added module.
func (r *Registry) RegisterAll() {
	r.API.Use(r.chain...)
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
