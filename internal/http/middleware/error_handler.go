package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// ErrorHandler превращает ошибку из c.Error в ответ {"error": причина}.
// Статус берётся из AppError, внутренние детали наружу не отдаются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.Status(err)
		fields := logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		}
		if account, ok := c.Get(ContextAccountKey); ok {
			fields["account"] = account
		}
		if status >= http.StatusInternalServerError {
			logger.WithFields(fields).Error("Request error")
		} else {
			logger.WithFields(fields).Debug("Request rejected")
		}

		c.JSON(status, gin.H{"error": apperror.Reason(err)})
	}
}
