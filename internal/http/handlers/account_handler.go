package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/http/handlers/common"
)

// AccountHandler показывает балансы и историю движения средств аккаунта.
type AccountHandler struct {
	ledger repository.Ledger
}

func NewAccountHandler(ledger repository.Ledger) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// TopUp POST /accounts/topup
// Зачисляет средства на счёт вызывающего, заменяя поступление из кошелька.
func (h *AccountHandler) TopUp(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.ledger.TopUp(c.Request.Context(), caller, req.Amount); err != nil {
		common.RespondAppError(c, err)
		return
	}
	h.respondBalance(c, caller)
}

// Balance GET /accounts/me/balance
func (h *AccountHandler) Balance(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	h.respondBalance(c, caller)
}

// Entries GET /accounts/me/entries
func (h *AccountHandler) Entries(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	limit, offset := common.GetPagination(c)
	entries, err := h.ledger.Entries(c.Request.Context(), caller, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLedgerEntriesResponse(entries))
}

func (h *AccountHandler) respondBalance(c *gin.Context, account uuid.UUID) {
	balance, err := h.ledger.Balance(c.Request.Context(), account)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Account: account, Balance: balance})
}
