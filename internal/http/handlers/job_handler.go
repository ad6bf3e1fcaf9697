package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/dto"
	"github.com/freelancedao/settlement/internal/escrow"
	"github.com/freelancedao/settlement/internal/http/handlers/common"
	"github.com/freelancedao/settlement/internal/validation"
)

// JobHandler открывает операции движка эскроу по HTTP. Вызывающий берётся из токена.
type JobHandler struct {
	engine  *escrow.Engine
	journal repository.EventJournal
}

func NewJobHandler(engine *escrow.Engine, journal repository.EventJournal) *JobHandler {
	return &JobHandler{engine: engine, journal: journal}
}

// CreateFixedJob POST /jobs/fixed
func (h *JobHandler) CreateFixedJob(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.CreateFixedJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateJobText(req.Title, req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.engine.CreateFixedJob(c.Request.Context(), caller, entity.JobParams{
		Title:       req.Title,
		Description: req.Description,
		Budget:      valueobject.Budget{Min: req.BudgetMin, Max: req.BudgetMax},
		Deadline:    req.Deadline,
	}, req.Value)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewJobResponse(job))
}

// CreateMilestoneJob POST /jobs/milestone
func (h *JobHandler) CreateMilestoneJob(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.CreateMilestoneJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateJobText(req.Title, req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateMilestoneCount(len(req.Milestones)); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.engine.CreateMilestoneJob(c.Request.Context(), caller, req.Milestones, entity.JobParams{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	}, req.Value)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewJobResponse(job))
}

// FundJob POST /jobs/:id/fund
func (h *JobHandler) FundJob(c *gin.Context) {
	var req dto.FundJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(caller callerJob) error {
		return h.engine.FundJob(c.Request.Context(), caller.account, caller.jobID, req.Value)
	})
}

// RequestJob POST /jobs/:id/request
func (h *JobHandler) RequestJob(c *gin.Context) {
	h.mutate(c, func(caller callerJob) error {
		return h.engine.RequestJob(c.Request.Context(), caller.account, caller.jobID)
	})
}

// ApproveProvider POST /jobs/:id/approve
func (h *JobHandler) ApproveProvider(c *gin.Context) {
	var req dto.ApproveProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(caller callerJob) error {
		return h.engine.ApproveProvider(c.Request.Context(), caller.account, caller.jobID, req.Freelancer)
	})
}

// MarkDelivery POST /jobs/:id/delivery
func (h *JobHandler) MarkDelivery(c *gin.Context) {
	var req dto.MarkDeliveryRequest
	// Тело необязательно: для фиксированной работы индекс не нужен.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	h.mutate(c, func(caller callerJob) error {
		_, err := h.engine.MarkDelivery(c.Request.Context(), caller.account, caller.jobID, req.MilestoneIndex)
		return err
	})
}

// ConfirmFixedJob POST /jobs/:id/confirm
func (h *JobHandler) ConfirmFixedJob(c *gin.Context) {
	h.mutate(c, func(caller callerJob) error {
		_, err := h.engine.ConfirmFixedJob(c.Request.Context(), caller.account, caller.jobID)
		return err
	})
}

// ConfirmMilestone POST /jobs/:id/milestones/:index/confirm
func (h *JobHandler) ConfirmMilestone(c *gin.Context) {
	index, err := common.ParseIndexParam(c, "index")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(caller callerJob) error {
		_, err := h.engine.ConfirmMilestone(c.Request.Context(), caller.account, caller.jobID, index)
		return err
	})
}

// CancelJob POST /jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.mutate(c, func(caller callerJob) error {
		_, err := h.engine.CancelJob(c.Request.Context(), caller.account, caller.jobID)
		return err
	})
}

// RequestRefund POST /jobs/:id/refund
func (h *JobHandler) RequestRefund(c *gin.Context) {
	h.mutate(c, func(caller callerJob) error {
		_, err := h.engine.ClientRequestRefund(c.Request.Context(), caller.account, caller.jobID)
		return err
	})
}

// Withdraw POST /jobs/:id/withdraw
func (h *JobHandler) Withdraw(c *gin.Context) {
	caller, ok := resolveCaller(c)
	if !ok {
		return
	}
	w, err := h.engine.Withdraw(c.Request.Context(), caller.account, caller.jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// BatchWithdraw POST /withdrawals/batch
func (h *JobHandler) BatchWithdraw(c *gin.Context) {
	caller, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	var req dto.BatchWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	batch, err := h.engine.BatchWithdraw(c.Request.Context(), caller, req.JobIDs)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// GetJob GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	job, err := h.engine.GetJob(c.Request.Context(), jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobResponse(job))
}

// GetMilestone GET /jobs/:id/milestones/:index
func (h *JobHandler) GetMilestone(c *gin.Context) {
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	index, err := common.ParseIndexParam(c, "index")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	m, err := h.engine.GetMilestone(c.Request.Context(), jobID, index)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMilestoneResponse(m))
}

// GetAvailableWithdrawal GET /jobs/:id/withdrawal
func (h *JobHandler) GetAvailableWithdrawal(c *gin.Context) {
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	w, err := h.engine.GetAvailableWithdrawal(c.Request.Context(), jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListJobEvents GET /jobs/:id/events
func (h *JobHandler) ListJobEvents(c *gin.Context) {
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if _, err := h.engine.GetJob(c.Request.Context(), jobID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	limit, offset := common.GetPagination(c)
	events, err := h.journal.ListByJob(c.Request.Context(), jobID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListFreelancerJobs GET /freelancers/:id/jobs
func (h *JobHandler) ListFreelancerJobs(c *gin.Context) {
	account, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	jobs, err := h.engine.GetFreelancerJobs(c.Request.Context(), account)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobListResponse(jobs))
}

// ListClientJobs GET /clients/:id/jobs
func (h *JobHandler) ListClientJobs(c *gin.Context) {
	account, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	jobs, err := h.engine.GetClientJobs(c.Request.Context(), account)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobListResponse(jobs))
}

type callerJob struct {
	account uuid.UUID
	jobID   uint64
}

func resolveCaller(c *gin.Context) (callerJob, bool) {
	account, err := common.CurrentAccount(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return callerJob{}, false
	}
	jobID, err := common.ParseIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return callerJob{}, false
	}
	return callerJob{account: account, jobID: jobID}, true
}

// mutate выполняет операцию над работой и отвечает её актуальным состоянием.
func (h *JobHandler) mutate(c *gin.Context, op func(callerJob) error) {
	caller, ok := resolveCaller(c)
	if !ok {
		return
	}
	if err := op(caller); err != nil {
		common.RespondAppError(c, err)
		return
	}
	job, err := h.engine.GetJob(c.Request.Context(), caller.jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobResponse(job))
}
