package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freelancedao/settlement/internal/arbitration"
	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/http/handlers/common"
	"github.com/freelancedao/settlement/internal/validation"
)

type DisputeHandler struct {
	module *arbitration.Module
}

func NewDisputeHandler(module *arbitration.Module) *DisputeHandler {
	return &DisputeHandler{module: module}
}

// CreateDispute POST /disputes
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateDisputeText(req.Title, req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.module.CreateDispute(c.Request.Context(), caller, entity.DisputeParams{
		JobID:        req.JobID,
		Counterparty: req.Counterparty,
		Title:        req.Title,
		Amount:       req.Amount,
		Category:     *req.Category,
		Description:  req.Description,
		ReasonCode:   req.ReasonCode,
	}, req.Stake)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewDisputeResponse(dispute))
}

// Vote POST /disputes/:id/votes
func (h *DisputeHandler) Vote(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	disputeID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.module.VoteOnDispute(c.Request.Context(), caller, disputeID, *req.VoteForClient)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDisputeResponse(dispute))
}

// AutoResolve POST /disputes/:id/auto-resolve
func (h *DisputeHandler) AutoResolve(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	disputeID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.module.AutoResolveDispute(c.Request.Context(), caller, disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDisputeResponse(dispute))
}

// GetDispute GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	disputeID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	dispute, err := h.module.GetDispute(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDisputeResponse(dispute))
}

// ListJobDisputes GET /jobs/:id/disputes
func (h *DisputeHandler) ListJobDisputes(c *gin.Context) {
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	disputes, err := h.module.ListJobDisputes(c.Request.Context(), jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	out := make([]dto.DisputeResponse, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, dto.NewDisputeResponse(d))
	}
	c.JSON(http.StatusOK, out)
}
