package handlers

import (
	"html/template"

	"water_heater/internal/hub"
	"water_heater/internal/logger"
	"water_heater/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP command surface to services and logging.
type Handler struct {
	services *service.Service
	hub      *hub.Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, observers *hub.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: observers, log: log}
}

var statusTemplate = template.Must(template.New("status").Parse(statusPageHTML))

// InitRoutes builds and returns the Gin router with all routes registered.
// The routes match the device's original surface: plain GETs a browser or a
// dumb client can drive.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.touchActivity)
	router.SetHTMLTemplate(statusTemplate)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Command surface
	router.GET("/", h.statusPage)
	router.GET("/slider", h.setSetpoint)
	router.GET("/toggle", h.toggle)

	// Telemetry observers (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	// Remote-update transport
	router.POST("/update", h.firmwareUpdate)

	return router
}
