package handlers

import (
	"net/http"
	"strconv"
	"time"

	"story4u-backend/errs"
	"story4u-backend/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 使用zap记录每个请求并更新请求指标
func RequestLogger(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		if m != nil {
			m.Requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status), metrics.UserAgent(c.Request.UserAgent())).Inc()
			m.Duration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("请求完成", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("请求完成", fields...)
		default:
			log.Info("请求完成", fields...)
		}
	}
}

// Recovery 捕获处理器中的panic并返回500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("处理请求时发生panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				respondError(c, log, errs.New(errs.Internal, "panic recovered"))
			}
		}()
		c.Next()
	}
}
