package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/freelancedao/settlement/internal/escrow"
)

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	db     *sqlx.DB
	engine *escrow.Engine
}

// NewHealthHandler создаёт новый health handler. db равен nil при
// хранении в памяти.
func NewHealthHandler(db *sqlx.DB, engine *escrow.Engine) *HealthHandler {
	return &HealthHandler{db: db, engine: engine}
}

// HealthResponse представляет ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}

		stats := h.db.Stats()
		if stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
			checks["connection_pool"] = "warning: pool exhausted"
		} else {
			checks["connection_pool"] = "healthy"
		}
	} else {
		checks["database"] = "memory"
	}

	// Баланс пула должен покрывать все удерживаемые суммы.
	audit, err := h.engine.Audit(ctx)
	switch {
	case err != nil:
		checks["escrow"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	case !audit.Balanced:
		checks["escrow"] = "unhealthy: pool " + audit.PoolBalance.String() + " != held " + audit.JobsHeld.String()
		status = "unhealthy"
	default:
		checks["escrow"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
