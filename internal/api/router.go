package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hestia-ops/hestia-backend-go/internal/api/handlers"
	"github.com/hestia-ops/hestia-backend-go/internal/api/middleware"
	"github.com/hestia-ops/hestia-backend-go/internal/config"
	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
	"github.com/hestia-ops/hestia-backend-go/internal/database/repositories"
	"github.com/hestia-ops/hestia-backend-go/internal/websocket"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, repos *repositories.Repositories, registry *devices.Registry, engine *automation.Engine, store *automation.ContextStore, clock *automation.SimClock, hub *websocket.Hub, collector *metrics.Collector, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware(collector))

	h := handlers.NewHandlers(cfg, repos, registry, engine, store, clock, hub, collector, logger)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	router.GET("/ws", websocket.HandleWebSocketGin(hub))

	api := router.Group("/api/v1")
	{
		deviceRoutes := api.Group("/devices")
		{
			deviceRoutes.GET("", h.GetDevices)
			deviceRoutes.POST("", h.CreateDevice)
			deviceRoutes.GET("/:id", h.GetDevice)
			deviceRoutes.DELETE("/:id", h.DeleteDevice)
			deviceRoutes.PUT("/:id/room", h.AssignDeviceRoom)
			deviceRoutes.POST("/:id/actions", h.ExecuteDeviceAction)
		}

		roomRoutes := api.Group("/rooms")
		{
			roomRoutes.GET("", h.GetRooms)
			roomRoutes.POST("", h.CreateRoom)
			roomRoutes.GET("/:id", h.GetRoom)
			roomRoutes.PUT("/:id", h.UpdateRoom)
			roomRoutes.DELETE("/:id", h.DeleteRoom)
			roomRoutes.GET("/:id/devices", h.GetRoomDevices)
		}

		contextRoutes := api.Group("/context")
		{
			contextRoutes.GET("", h.GetContext)
			contextRoutes.PUT("/:dimension", h.UpdateContext)
		}

		routineRoutes := api.Group("/routines")
		{
			routineRoutes.GET("", h.GetRoutines)
			routineRoutes.POST("", h.CreateRoutine)
			routineRoutes.GET("/:id", h.GetRoutine)
			routineRoutes.PUT("/:id", h.UpdateRoutine)
			routineRoutes.DELETE("/:id", h.DeleteRoutine)
			routineRoutes.PUT("/:id/enabled", h.SetRoutineEnabled)
		}

		preferenceRoutes := api.Group("/preferences")
		{
			preferenceRoutes.GET("", h.GetPreferences)
			preferenceRoutes.POST("", h.CreatePreference)
			preferenceRoutes.GET("/:id", h.GetPreference)
			preferenceRoutes.DELETE("/:id", h.DeletePreference)
		}

		quickActionRoutes := api.Group("/quick-actions")
		{
			quickActionRoutes.GET("", h.GetQuickActions)
			quickActionRoutes.POST("", h.CreateQuickAction)
			quickActionRoutes.DELETE("/:id", h.DeleteQuickAction)
			quickActionRoutes.POST("/:id/execute", h.ExecuteQuickAction)
		}

		simulationRoutes := api.Group("/simulation")
		{
			simulationRoutes.GET("/status", h.GetSimulationStatus)
			simulationRoutes.POST("/start", h.StartSimulation)
			simulationRoutes.POST("/stop", h.StopSimulation)
		}
	}

	return router
}
