package bootstrap

import (
	"net/http"
	"slices"

	httpapi "github.com/GoSim-25-26J-441/items-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/items-backend/internal/api/http/middleware"
	itemshttp "github.com/GoSim-25-26J-441/items-backend/internal/items/http"
	"github.com/GoSim-25-26J-441/items-backend/internal/logger"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Store          persistence.Store
	Logger         *logger.Logger
	StaticDir      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(corsMiddleware(dep.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware(dep.RateLimitRPS, dep.RateLimitBurst))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	itemsHandler := itemshttp.NewHandler(dep.Store, dep.Logger)
	itemsHandler.Register(r)

	if dep.StaticDir != "" {
		files := http.FileServer(gin.Dir(dep.StaticDir, false))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
