package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/greensidehq/greenside/internal/api/controller"
	"github.com/greensidehq/greenside/internal/api/middleware"
	"github.com/greensidehq/greenside/internal/app"
)

// SetupRoutes builds the gin engine: API routes for the dashboard, a
// websocket status feed, and a catch-all gateway that routes everything else
// through the caching strategies.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "UP"})
	})

	rc := controller.NewRecordController(appCtx.Loader)
	sc := controller.NewStatusController(appCtx.Notifier)
	gc := controller.NewGatewayController(appCtx.Interceptor, appCtx.Config.Upstream.BaseURL)

	api := r.Group("/api")
	api.Use(middleware.RequestTimeout(appCtx.Config.Server.RequestTimeout))
	{
		api.GET("/records", rc.List)
		api.POST("/records", rc.Create)
		api.GET("/stats", rc.Stats)
		api.POST("/refresh", rc.Refresh)
		api.GET("/status", sc.Status)
	}

	// The websocket feed must outlive the request timeout.
	r.GET("/api/status/ws", sc.Subscribe)

	// Everything else goes through the strategy interceptor.
	r.NoRoute(gc.Handle)

	return r
}
