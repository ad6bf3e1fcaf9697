package escrow_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

func assertAmount(t *testing.T, want int64, got valueobject.Amount) {
	t.Helper()
	assert.Equal(t, valueobject.AmountOf(want).String(), got.String())
}

func TestFixedJob_HappyPath(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(10))

	late, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	assert.False(t, late)

	confirmed, err := h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	require.NoError(t, err)
	assertAmount(t, 10*hbar, confirmed)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierStandard, w.Tier)
	assertAmount(t, 950_000_000, w.Net)
	assertAmount(t, 50_000_000, w.Fee)

	assertAmount(t, 950_000_000, h.balance(h.freelancer))
	assertAmount(t, 50_000_000, h.balance(h.treasury))
	assertAmount(t, 0, h.balance(h.client))

	job := h.job(jobID)
	assert.Equal(t, valueobject.JobStatusConfirmed, job.Status)
	assertAmount(t, 10*hbar, job.Withdrawn)
	h.requireBalanced()

	names := make([]entity.EventName, 0)
	for _, e := range h.recorder.Events() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []entity.EventName{
		entity.EventJobCreated,
		entity.EventJobFunded,
		entity.EventProviderRequested,
		entity.EventProviderApproved,
		entity.EventDeliveryMarked,
		entity.EventFixedJobConfirmed,
		entity.EventWithdrawn,
	}, names)
}

func TestFixedJob_LateDisputeAutoResolvedPaysLateFee(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(valueobject.AmountOf(100))

	h.clock.Advance(8 * 24 * time.Hour)
	late, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	assert.True(t, late)

	_, err = h.engine.OpenDispute(h.ctx, h.module, jobID, h.client)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusDisputed, h.job(jobID).Status)

	released, err := h.engine.ResolveInFavorOfFreelancer(h.ctx, h.module, jobID, valueobject.FeeTierLate)
	require.NoError(t, err)
	assertAmount(t, 0, released)
	assert.Equal(t, valueobject.JobStatusDelivery, h.job(jobID).Status)

	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	require.NoError(t, err)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierLate, w.Tier)
	assertAmount(t, 93, w.Net)
	assertAmount(t, 7, h.balance(h.treasury))
	h.requireBalanced()
}

func TestMilestoneJob_EarlyWithdrawalPaysEarlyFee(t *testing.T) {
	h := newHarness(t)
	jobID := h.milestoneJob(valueobject.AmountOf(50), valueobject.AmountOf(50))

	_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 0)
	require.NoError(t, err)

	quote, err := h.engine.GetAvailableWithdrawal(h.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierEarly, quote.Tier)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assertAmount(t, 45, w.Net)
	assertAmount(t, 5, w.Fee)

	job := h.job(jobID)
	assert.Equal(t, valueobject.JobStatusPending, job.Status)
	assertAmount(t, 50, job.EscrowBalance())
	h.requireBalanced()
}

func TestMilestoneJob_RefundKeepsConfirmedPortionAtStandardFee(t *testing.T) {
	h := newHarness(t)
	jobID := h.milestoneJob(units(30), units(30), units(40))

	_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 0)
	require.NoError(t, err)

	refund, err := h.engine.ClientRequestRefund(h.ctx, h.client, jobID)
	require.NoError(t, err)
	assertAmount(t, 70*hbar, refund)
	assertAmount(t, 70*hbar, h.balance(h.client))
	assert.Equal(t, valueobject.JobStatusRefunded, h.job(jobID).Status)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierStandard, w.Tier)
	assertAmount(t, 2_850_000_000, w.Net)
	assertAmount(t, 0, h.job(jobID).EscrowBalance())
	h.requireBalanced()
}

func TestDisputeResolution_VoteOutcomes(t *testing.T) {
	t.Run("freelancer wins", func(t *testing.T) {
		h := newHarness(t)
		jobID := h.fixedJob(units(20))
		_, err := h.engine.OpenDispute(h.ctx, h.module, jobID, h.freelancer)
		require.NoError(t, err)

		released, err := h.engine.ResolveInFavorOfFreelancer(h.ctx, h.module, jobID, valueobject.FeeTierStandard)
		require.NoError(t, err)
		assertAmount(t, 20*hbar, released)

		job := h.job(jobID)
		assert.Equal(t, valueobject.JobStatusConfirmed, job.Status)
		assertAmount(t, 20*hbar, job.Payable())
	})

	t.Run("client wins", func(t *testing.T) {
		h := newHarness(t)
		jobID := h.fixedJob(units(20))
		_, err := h.engine.OpenDispute(h.ctx, h.module, jobID, h.client)
		require.NoError(t, err)

		refund, err := h.engine.ResolveInFavorOfClient(h.ctx, h.module, jobID)
		require.NoError(t, err)
		assertAmount(t, 20*hbar, refund)

		job := h.job(jobID)
		assert.Equal(t, valueobject.JobStatusRefunded, job.Status)
		assertAmount(t, 0, job.EscrowBalance())
		assertAmount(t, 20*hbar, h.balance(h.client))
		h.requireBalanced()
	})
}

func TestCancelJob_RefundsDepositAndFinalizes(t *testing.T) {
	h := newHarness(t)
	h.topUp(h.client, units(5))
	job, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(units(5)), units(5))
	require.NoError(t, err)
	require.NoError(t, h.engine.RequestJob(h.ctx, h.freelancer, job.ID))

	refund, err := h.engine.CancelJob(h.ctx, h.client, job.ID)
	require.NoError(t, err)
	assertAmount(t, 5*hbar, refund)
	assertAmount(t, 5*hbar, h.balance(h.client))
	assert.Equal(t, valueobject.JobStatusCancelled, h.job(job.ID).Status)

	_, err = h.engine.CancelJob(h.ctx, h.client, job.ID)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	err = h.engine.ApproveProvider(h.ctx, h.client, job.ID, h.freelancer)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	err = h.engine.RequestJob(h.ctx, uuid.New(), job.ID)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	h.requireBalanced()
}

func TestCancelJob_RejectedAfterApproval(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(5))

	_, err := h.engine.CancelJob(h.ctx, h.client, jobID)
	assert.ErrorIs(t, err, apperror.ErrJobNotOpen)
	assert.Equal(t, valueobject.JobStatusPending, h.job(jobID).Status)
}

func TestTerminalJob_RejectsEveryMutationButWithdraw(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(10))
	_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	require.NoError(t, err)

	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	_, err = h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	err = h.engine.FundJob(h.ctx, h.client, jobID, units(10))
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)
	_, err = h.engine.OpenDispute(h.ctx, h.module, jobID, h.client)
	assert.ErrorIs(t, err, apperror.ErrJobTerminal)

	_, err = h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	assert.NoError(t, err)
}

func TestCreateJob_DeadlineMustBeFuture(t *testing.T) {
	h := newHarness(t)
	params := h.params(units(1))
	params.Deadline = start

	_, err := h.engine.CreateFixedJob(h.ctx, h.client, params, valueobject.Zero)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Deadline must be future")

	_, err = h.engine.CreateMilestoneJob(h.ctx, h.client, []valueobject.Amount{units(1)}, params, valueobject.Zero)
	assert.ErrorIs(t, err, apperror.ErrDeadlineNotFuture)
}

func TestCreateJob_InsufficientBalanceLeavesNoJob(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(units(3)), units(3))
	assert.True(t, apperror.IsInvariant(err))

	jobs, err := h.engine.GetClientJobs(h.ctx, h.client)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestFundJob_OnlyClientAndExactAmount(t *testing.T) {
	h := newHarness(t)
	job, err := h.engine.CreateMilestoneJob(h.ctx, h.client, []valueobject.Amount{units(2), units(3)}, h.params(units(5)), valueobject.Zero)
	require.NoError(t, err)
	assert.False(t, job.Funded)
	assert.Equal(t, valueobject.JobStatusOpen, job.Status)

	stranger := uuid.New()
	h.topUp(stranger, units(5))
	err = h.engine.FundJob(h.ctx, stranger, job.ID, units(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only client can fund")

	h.topUp(h.client, units(5))
	err = h.engine.FundJob(h.ctx, h.client, job.ID, units(4))
	assert.ErrorIs(t, err, apperror.ErrFundingMismatch)
	assert.False(t, h.job(job.ID).Funded)

	require.NoError(t, h.engine.FundJob(h.ctx, h.client, job.ID, units(5)))
	assert.True(t, h.job(job.ID).Funded)
	assertAmount(t, 0, h.balance(h.client))

	err = h.engine.FundJob(h.ctx, h.client, job.ID, units(5))
	assert.ErrorIs(t, err, apperror.ErrAlreadyFunded)
	h.requireBalanced()
}

func TestFundJob_LedgerFailureRestoresJob(t *testing.T) {
	h := newHarness(t)
	job, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(units(5)), valueobject.Zero)
	require.NoError(t, err)

	err = h.engine.FundJob(h.ctx, h.client, job.ID, units(5))
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
	assert.False(t, h.job(job.ID).Funded)
}

func TestApproveProvider_Rules(t *testing.T) {
	h := newHarness(t)
	h.topUp(h.client, units(5))
	job, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(units(5)), units(5))
	require.NoError(t, err)

	err = h.engine.RequestJob(h.ctx, h.client, job.ID)
	assert.ErrorIs(t, err, apperror.ErrClientRequest)

	err = h.engine.ApproveProvider(h.ctx, h.client, job.ID, h.freelancer)
	assert.ErrorIs(t, err, apperror.ErrNotRequested)

	other := uuid.New()
	require.NoError(t, h.engine.RequestJob(h.ctx, h.freelancer, job.ID))
	require.NoError(t, h.engine.RequestJob(h.ctx, other, job.ID))
	err = h.engine.RequestJob(h.ctx, other, job.ID)
	assert.ErrorIs(t, err, apperror.ErrAlreadyRequested)

	err = h.engine.ApproveProvider(h.ctx, other, job.ID, other)
	assert.ErrorIs(t, err, apperror.ErrOnlyClient)

	require.NoError(t, h.engine.ApproveProvider(h.ctx, h.client, job.ID, h.freelancer))
	err = h.engine.ApproveProvider(h.ctx, h.client, job.ID, other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider already approved")
	assert.Equal(t, h.freelancer, h.job(job.ID).Freelancer)
}

func TestApproveProvider_RequiresFunding(t *testing.T) {
	h := newHarness(t)
	job, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(units(5)), valueobject.Zero)
	require.NoError(t, err)
	require.NoError(t, h.engine.RequestJob(h.ctx, h.freelancer, job.ID))

	err = h.engine.ApproveProvider(h.ctx, h.client, job.ID, h.freelancer)
	assert.ErrorIs(t, err, apperror.ErrNotFunded)
}

func TestRoleChecks_LeaveStateUnchanged(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(10))
	stranger := uuid.New()

	_, err := h.engine.MarkDelivery(h.ctx, stranger, jobID, 0)
	assert.ErrorIs(t, err, apperror.ErrOnlyFreelancer)
	_, err = h.engine.MarkDelivery(h.ctx, h.client, jobID, 0)
	assert.ErrorIs(t, err, apperror.ErrOnlyFreelancer)

	_, err = h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)

	_, err = h.engine.ConfirmFixedJob(h.ctx, h.freelancer, jobID)
	assert.ErrorIs(t, err, apperror.ErrOnlyClient)
	_, err = h.engine.Withdraw(h.ctx, h.client, jobID)
	assert.ErrorIs(t, err, apperror.ErrOnlyFreelancer)
	_, err = h.engine.CancelJob(h.ctx, stranger, jobID)
	assert.True(t, apperror.IsForbidden(err))

	job := h.job(jobID)
	assert.Equal(t, valueobject.JobStatusDelivery, job.Status)
	assertAmount(t, 0, job.ConfirmedAmount)
}

func TestConfirmFixedJob_RequiresDelivery(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(10))

	_, err := h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStatus)
}

func TestWithdraw_SecondCallPaysNothing(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(10))
	_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	require.NoError(t, err)

	first, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	second, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)

	assertAmount(t, 950_000_000, first.Net)
	assertAmount(t, 0, second.Payable)
	assertAmount(t, 0, second.Net)
	assertAmount(t, 950_000_000, h.balance(h.freelancer))
	assert.Len(t, h.recorder.Named(entity.EventWithdrawn), 1)
}

func TestWithdraw_LateDeliveryWithoutDispute(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(valueobject.AmountOf(1000))
	h.clock.Advance(30 * 24 * time.Hour)

	late, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 0)
	require.NoError(t, err)
	assert.True(t, late)
	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, jobID)
	require.NoError(t, err)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierLate, w.Tier)
	assertAmount(t, 930, w.Net)
}

func TestMilestoneJob_AllConfirmedFinalizesAtStandardFee(t *testing.T) {
	h := newHarness(t)
	jobID := h.milestoneJob(valueobject.AmountOf(300), valueobject.AmountOf(700))

	for i := 0; i < 2; i++ {
		_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, i)
		require.NoError(t, err)
	}
	_, err := h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusPending, h.job(jobID).Status)

	_, err = h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 1)
	assert.ErrorIs(t, err, apperror.ErrMilestoneConfirmed)

	_, err = h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 0)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusConfirmed, h.job(jobID).Status)

	w, err := h.engine.Withdraw(h.ctx, h.freelancer, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.FeeTierStandard, w.Tier)
	assertAmount(t, 950, w.Net)
	h.requireBalanced()
}

func TestMilestoneJob_ConfirmRequiresDelivery(t *testing.T) {
	h := newHarness(t)
	jobID := h.milestoneJob(valueobject.AmountOf(10), valueobject.AmountOf(10))

	_, err := h.engine.ConfirmMilestone(h.ctx, h.client, jobID, 1)
	assert.ErrorIs(t, err, apperror.ErrMilestoneNotDelivered)
	_, err = h.engine.MarkDelivery(h.ctx, h.freelancer, jobID, 5)
	assert.ErrorIs(t, err, apperror.ErrMilestoneNotFound)

	m, err := h.engine.GetMilestone(h.ctx, jobID, 1)
	require.NoError(t, err)
	assertAmount(t, 10, m.Amount)
	assert.False(t, m.Delivered)
}

func TestBatchWithdraw(t *testing.T) {
	h := newHarness(t)
	first := h.fixedJob(valueobject.AmountOf(1000))
	second := h.milestoneJob(valueobject.AmountOf(400), valueobject.AmountOf(600))
	idle := h.fixedJob(valueobject.AmountOf(50))

	_, err := h.engine.MarkDelivery(h.ctx, h.freelancer, first, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmFixedJob(h.ctx, h.client, first)
	require.NoError(t, err)
	_, err = h.engine.MarkDelivery(h.ctx, h.freelancer, second, 0)
	require.NoError(t, err)
	_, err = h.engine.ConfirmMilestone(h.ctx, h.client, second, 0)
	require.NoError(t, err)

	t.Run("one foreign job aborts the batch", func(t *testing.T) {
		stranger := h.fixedJobFor(valueobject.AmountOf(10), uuid.New())

		_, err := h.engine.BatchWithdraw(h.ctx, h.freelancer, []uint64{first, stranger})
		assert.ErrorIs(t, err, apperror.ErrOnlyFreelancer)
		assertAmount(t, 0, h.balance(h.freelancer))
		assertAmount(t, 0, h.job(first).Withdrawn)
	})

	t.Run("unknown job aborts the batch", func(t *testing.T) {
		_, err := h.engine.BatchWithdraw(h.ctx, h.freelancer, []uint64{first, 999})
		assert.ErrorIs(t, err, apperror.ErrJobNotFound)
		assertAmount(t, 0, h.job(first).Withdrawn)
	})

	t.Run("duplicates and empty batches are rejected", func(t *testing.T) {
		_, err := h.engine.BatchWithdraw(h.ctx, h.freelancer, nil)
		assert.ErrorIs(t, err, apperror.ErrEmptyBatch)
		_, err = h.engine.BatchWithdraw(h.ctx, h.freelancer, []uint64{first, first})
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("valid batch pays every job once", func(t *testing.T) {
		result, err := h.engine.BatchWithdraw(h.ctx, h.freelancer, []uint64{first, second, idle})
		require.NoError(t, err)
		require.Len(t, result.Items, 3)

		assertAmount(t, 950, result.Items[0].Net)
		assert.Equal(t, valueobject.FeeTierEarly, result.Items[1].Tier)
		assertAmount(t, 360, result.Items[1].Net)
		assertAmount(t, 0, result.Items[2].Payable)

		assertAmount(t, 1310, result.TotalNet)
		assertAmount(t, 90, result.TotalFee)
		assertAmount(t, 1310, h.balance(h.freelancer))
		assertAmount(t, 90, h.balance(h.treasury))
		h.requireBalanced()
	})
}

func TestDisputeCallbacks_RequireRegisteredModule(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(1))

	_, err := h.engine.OpenDispute(h.ctx, uuid.New(), jobID, h.client)
	assert.ErrorIs(t, err, apperror.ErrOnlyDisputeModule)
	_, err = h.engine.ResolveInFavorOfClient(h.ctx, h.client, jobID)
	assert.ErrorIs(t, err, apperror.ErrOnlyDisputeModule)

	err = h.engine.SetDisputeContract(h.ctx, h.client, h.client)
	assert.ErrorIs(t, err, apperror.ErrOnlyOwner)
	assert.Equal(t, h.module, h.engine.DisputeContract())

	_, err = h.engine.OpenDispute(h.ctx, h.module, jobID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotParticipant)
	_, err = h.engine.ResolveInFavorOfFreelancer(h.ctx, h.module, jobID, valueobject.FeeTierStandard)
	assert.ErrorIs(t, err, apperror.ErrInvalidStatus)
}

func TestDisputeCallbacks_NotWired(t *testing.T) {
	h := newHarness(t)
	fresh, err := newUnwiredEngine(h)
	require.NoError(t, err)

	_, err = fresh.OpenDispute(h.ctx, h.module, 1, h.client)
	assert.ErrorIs(t, err, apperror.ErrNotWired)
}

func TestDispute_OnlyOneActivePerJob(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(1))

	_, err := h.engine.OpenDispute(h.ctx, h.module, jobID, h.client)
	require.NoError(t, err)
	_, err = h.engine.OpenDispute(h.ctx, h.module, jobID, h.freelancer)
	assert.ErrorIs(t, err, apperror.ErrJobNotDisputable)
}

func TestLateResolution_RequiresPassedDeadline(t *testing.T) {
	h := newHarness(t)
	jobID := h.fixedJob(units(1))
	_, err := h.engine.OpenDispute(h.ctx, h.module, jobID, h.client)
	require.NoError(t, err)

	_, err = h.engine.ResolveInFavorOfFreelancer(h.ctx, h.module, jobID, valueobject.FeeTierLate)
	assert.ErrorIs(t, err, apperror.ErrNotLate)
	assert.Equal(t, valueobject.JobStatusDisputed, h.job(jobID).Status)
}

func TestGetFreelancerJobs(t *testing.T) {
	h := newHarness(t)
	a := h.fixedJob(units(1))
	b := h.milestoneJob(units(1))

	jobs, err := h.engine.GetFreelancerJobs(h.ctx, h.freelancer)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a, jobs[0].ID)
	assert.Equal(t, b, jobs[1].ID)

	none, err := h.engine.GetFreelancerJobs(h.ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = h.engine.GetJob(h.ctx, 42)
	assert.True(t, apperror.IsNotFound(err))
}

func TestEngine_RejectsMissingCaller(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.CreateFixedJob(h.ctx, uuid.Nil, h.params(units(1)), valueobject.Zero)
	assert.ErrorIs(t, err, apperror.ErrMissingCaller)
}

var _ repository.Ledger = (*failingLedger)(nil)
