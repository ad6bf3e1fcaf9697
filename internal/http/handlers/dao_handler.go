package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freelancedao/settlement/internal/arbitration"
	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/http/handlers/common"
)

// DaoHandler управляет составом DAO. Изменения доступны только владельцу.
type DaoHandler struct {
	module *arbitration.Module
}

func NewDaoHandler(module *arbitration.Module) *DaoHandler {
	return &DaoHandler{module: module}
}

// ListMembers GET /dao/members
func (h *DaoHandler) ListMembers(c *gin.Context) {
	members, err := h.module.DaoMembers(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"members":   members,
		"quorum":    h.module.Quorum(),
		"min_stake": h.module.MinStake(),
	})
}

// AddMember POST /dao/members
func (h *DaoHandler) AddMember(c *gin.Context) {
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
	if err := h.module.AddDaoMember(c.Request.Context(), caller, req.Account); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": req.Account})
}

// RemoveMember DELETE /dao/members/:id
func (h *DaoHandler) RemoveMember(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	member, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.module.RemoveDaoMember(c.Request.Context(), caller, member); err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
