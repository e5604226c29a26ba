package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
)

// ErrorHandler отвечает на ошибки, добавленные через c.Error, если обработчик сам ничего не записал.
// Внутренние ошибки маскируются, причина пишется только в лог.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"
		if appErr, ok := apperror.As(err); ok && appErr.HTTPStatus < http.StatusInternalServerError {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		}

		entry := logger.Component("http").WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": statusCode,
		})
		if statusCode >= http.StatusInternalServerError {
			entry.Error("http: ошибка обработки запроса")
		} else {
			entry.Debug("http: запрос отклонён")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(statusCode, gin.H{"error": message})
	}
}

// Recovery превращает панику обработчика в 500 с записью в лог.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Component("http").WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("http: паника в обработчике")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	})
}

// RequestLogger пишет в лог каждый запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Component("http").WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"ip":      c.ClientIP(),
			"latency": time.Since(start).String(),
		}).Info("http: запрос")
	}
}
