package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/escrow"
	"github.com/freelancedao/settlement/internal/http/handlers/common"
)

type AdminHandler struct {
	engine *escrow.Engine
}

func NewAdminHandler(engine *escrow.Engine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

// SetDisputeContract POST /admin/dispute-contract
func (h *AdminHandler) SetDisputeContract(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.engine.SetDisputeContract(c.Request.Context(), caller, req.Account); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispute_contract": h.engine.DisputeContract()})
}

// Audit GET /admin/audit
func (h *AdminHandler) Audit(c *gin.Context) {
	audit, err := h.engine.Audit(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}
