package handlers

import (
	"net/http"
	"runtime"
	"time"

	"story4u-backend/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	CurrentTime  time.Time `json:"current_time"`
	GoVersion    string    `json:"go_version"`
	NumGoroutine int       `json:"num_goroutine"`
	NumCPU       int       `json:"num_cpu"`
	DBStatus     string    `json:"db_status"`
	RateStore    string    `json:"rate_limit_store"`
}

// Version 应用版本，可通过构建参数注入
var Version = "0.1.0"

// HealthCheck 提供基本健康检查端点
func (a *API) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// SystemStatus 提供详细的系统状态信息，数据库不可用时返回503
func (a *API) SystemStatus(c *gin.Context) {
	dbStatus := "ok"
	code := http.StatusOK
	if err := database.Ping(a.db); err != nil {
		a.log.Warn("数据库健康检查失败", zap.Error(err))
		dbStatus = "error"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, SystemInfo{
		Status:       dbStatus,
		Version:      Version,
		Uptime:       time.Since(a.started).Round(time.Second).String(),
		StartTime:    a.started,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		DBStatus:     dbStatus,
		RateStore:    a.cfg.RateLimitStore,
	})
}

// MetricsHandler 返回Prometheus格式的指标
func (a *API) MetricsHandler(c *gin.Context) {
	if a.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	a.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
