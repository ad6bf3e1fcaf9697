package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/http/middleware"
)

var (
	ErrAccountNotFound = errors.New("аккаунт не найден в контексте")
	ErrInvalidUUID     = errors.New("неверный формат UUID")
	ErrInvalidID       = errors.New("неверный номер")
)

// CurrentAccount возвращает аккаунт вызывающего из контекста.
func CurrentAccount(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextAccountKey)
	if !exists {
		return uuid.Nil, ErrAccountNotFound
	}
	account, ok := raw.(uuid.UUID)
	if !ok || account == uuid.Nil {
		return uuid.Nil, ErrAccountNotFound
	}
	return account, nil
}

func CurrentRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrAccountNotFound
	}
	role, ok := raw.(string)
	if !ok {
		return "", ErrAccountNotFound
	}
	return role, nil
}

// ParseIDParam читает числовой номер работы или спора из URL.
func ParseIDParam(c *gin.Context, paramName string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return id, nil
}

// ParseIndexParam читает индекс этапа (с нуля).
func ParseIndexParam(c *gin.Context, paramName string) (int, error) {
	idx, err := strconv.Atoi(c.Param(paramName))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return idx, nil
}

func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return parsed, nil
}

// RespondAppError передаёт ошибку в middleware.ErrorHandler.
func RespondAppError(c *gin.Context, err error) {
	_ = c.Error(err)
}

func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// ParseIntQuery читает целый query параметр или возвращает fallback.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination извлекает limit и offset с дефолтами.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
