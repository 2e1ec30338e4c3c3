package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopnotify/backend/internal/interfaces/http/dto"
)

// DeviceCounter reports the number of registered devices
type DeviceCounter interface {
	Count() int
}

// SystemInfo is static information about the running service
type SystemInfo struct {
	Name            string
	Version         string
	Env             string
	RegistryBackend string
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	info      SystemInfo
	devices   DeviceCounter
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(info SystemInfo, devices DeviceCounter) *SystemHandler {
	return &SystemHandler{
		info:      info,
		devices:   devices,
		startTime: time.Now(),
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Devices int    `json:"devices"`
}

// Health handles GET /health. The service has no hard dependency at request
// time, so it is healthy whenever it answers.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Devices: h.devices.Count(),
	})
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Env             string `json:"env"`
	GoVersion       string `json:"go_version"`
	Uptime          string `json:"uptime"`
	RegistryBackend string `json:"registry_backend"`
	Devices         int    `json:"devices"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:            h.info.Name,
		Version:         h.info.Version,
		Env:             h.info.Env,
		GoVersion:       runtime.Version(),
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		RegistryBackend: h.info.RegistryBackend,
		Devices:         h.devices.Count(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/system/info", h.GetSystemInfo)
	rg.GET("/system/ping", h.Ping)
}
