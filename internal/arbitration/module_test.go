package arbitration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancedao/settlement/internal/arbitration"
	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/escrow"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/infrastructure/memory"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
	"github.com/freelancedao/settlement/internal/pkg/clock"
)

const hbar = 100_000_000

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stack struct {
	t          *testing.T
	ctx        context.Context
	engine     *escrow.Engine
	module     *arbitration.Module
	ledger     *memory.Ledger
	recorder   *events.Recorder
	clock      *clock.Manual
	owner      uuid.UUID
	treasury   uuid.UUID
	client     uuid.UUID
	freelancer uuid.UUID
	members    []uuid.UUID
}

var errStoreDown = errors.New("db down")

// flakyDisputes отказывает в записи по флагам.
type flakyDisputes struct {
	*memory.DisputeStore
	failCreate bool
	failUpdate bool
}

func (f *flakyDisputes) Create(ctx context.Context, d *entity.Dispute) error {
	if f.failCreate {
		return errStoreDown
	}
	return f.DisputeStore.Create(ctx, d)
}

func (f *flakyDisputes) Update(ctx context.Context, d *entity.Dispute) error {
	if f.failUpdate {
		return errStoreDown
	}
	return f.DisputeStore.Update(ctx, d)
}

// refusingEscrow пропускает всё в движок, кроме исполнения решения.
type refusingEscrow struct {
	*escrow.Engine
}

func (refusingEscrow) ResolveInFavorOfClient(context.Context, uuid.UUID, uint64) (valueobject.Amount, error) {
	return valueobject.Zero, errStoreDown
}

func (refusingEscrow) ResolveInFavorOfFreelancer(context.Context, uuid.UUID, uint64, valueobject.FeeTier) (valueobject.Amount, error) {
	return valueobject.Zero, errStoreDown
}

func newStack(t *testing.T) *stack {
	t.Helper()
	return newStackWith(t, memory.NewDisputeStore())
}

func newStackWith(t *testing.T, disputes repository.DisputeRepository) *stack {
	t.Helper()
	s := &stack{
		t:          t,
		ctx:        context.Background(),
		ledger:     memory.NewLedger(),
		recorder:   &events.Recorder{},
		clock:      clock.NewManual(start),
		owner:      uuid.New(),
		treasury:   uuid.New(),
		client:     uuid.New(),
		freelancer: uuid.New(),
	}

	engine, err := escrow.NewEngine(memory.NewJobStore(), s.ledger, s.recorder, s.clock, escrow.Config{
		Owner:    s.owner,
		Treasury: s.treasury,
		Fees:     valueobject.DefaultFeeSchedule(),
	})
	require.NoError(t, err)

	module, err := arbitration.NewModule(disputes, memory.NewMemberStore(), s.ledger, s.recorder, s.clock, arbitration.Config{
		Owner:    s.owner,
		Account:  uuid.New(),
		Treasury: s.treasury,
		Quorum:   2,
		MinStake: valueobject.AmountOf(2 * hbar),
	})
	require.NoError(t, err)

	require.NoError(t, engine.SetDisputeContract(s.ctx, s.owner, module.Account()))
	require.NoError(t, module.SetEscrowContract(s.owner, engine))

	for i := 0; i < 3; i++ {
		member := uuid.New()
		require.NoError(t, module.AddDaoMember(s.ctx, s.owner, member))
		s.members = append(s.members, member)
	}
	s.engine, s.module = engine, module
	return s
}

func (s *stack) fixedJob(total int64) uint64 {
	s.t.Helper()
	amount := valueobject.AmountOf(total)
	require.NoError(s.t, s.ledger.TopUp(s.ctx, s.client, amount))
	job, err := s.engine.CreateFixedJob(s.ctx, s.client, entity.JobParams{
		Title:    "Smart contract audit",
		Budget:   valueobject.Budget{Min: amount, Max: amount},
		Deadline: start.Add(72 * time.Hour),
	}, amount)
	require.NoError(s.t, err)
	require.NoError(s.t, s.engine.RequestJob(s.ctx, s.freelancer, job.ID))
	require.NoError(s.t, s.engine.ApproveProvider(s.ctx, s.client, job.ID, s.freelancer))
	return job.ID
}

func (s *stack) dispute(initiator uuid.UUID, jobID uint64, category valueobject.DisputeCategory) *entity.Dispute {
	s.t.Helper()
	require.NoError(s.t, s.ledger.TopUp(s.ctx, initiator, valueobject.AmountOf(2*hbar)))
	d, err := s.module.CreateDispute(s.ctx, initiator, entity.DisputeParams{
		JobID:      jobID,
		Title:      "Delivery problem",
		Amount:     valueobject.AmountOf(100),
		Category:   category,
		ReasonCode: 7,
	}, valueobject.AmountOf(2*hbar))
	require.NoError(s.t, err)
	return d
}

func (s *stack) balance(account uuid.UUID) valueobject.Amount {
	s.t.Helper()
	b, err := s.ledger.Balance(s.ctx, account)
	require.NoError(s.t, err)
	return b
}

func assertAmount(t *testing.T, want int64, got valueobject.Amount) {
	t.Helper()
	assert.Equal(t, valueobject.AmountOf(want).String(), got.String())
}

func TestLateDelivery_AutoResolvedThenConfirmedAtLateFee(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(100)

	s.clock.Advance(96 * time.Hour)
	_, err := s.engine.MarkDelivery(s.ctx, s.freelancer, jobID, 0)
	require.NoError(t, err)

	d := s.dispute(s.client, jobID, valueobject.DisputeLateDelivery)
	assert.Equal(t, s.freelancer, d.Counterparty)
	assertAmount(t, 0, s.balance(s.client))

	resolved, err := s.module.AutoResolveDispute(s.ctx, s.client, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedLate, resolved.Status)
	assertAmount(t, 2*hbar, s.balance(s.client))

	_, err = s.engine.ConfirmFixedJob(s.ctx, s.client, jobID)
	require.NoError(t, err)
	w, err := s.engine.Withdraw(s.ctx, s.freelancer, jobID)
	require.NoError(t, err)
	assertAmount(t, 93, w.Net)
	assertAmount(t, 7, s.balance(s.treasury))

	pool, err := s.ledger.PoolBalance(s.ctx, repository.PoolDispute)
	require.NoError(t, err)
	assertAmount(t, 0, pool)
}

func TestVote_FreelancerWinsConfirmsJob(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeQualityIssue)

	after, err := s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, false)
	require.NoError(t, err)
	assert.True(t, after.Status.IsOpen())

	after, err = s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, false)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedFreelancer, after.Status)
	require.NotNil(t, after.ResolvedAt)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusConfirmed, job.Status)
	assertAmount(t, 500, job.Payable())

	// Клиент проиграл спор, залог ушёл в казну.
	assertAmount(t, 2*hbar, s.balance(s.treasury))
	assert.Len(t, s.recorder.Named(entity.EventDisputeResolved), 1)
}

func TestVote_ClientWinsRefundsJob(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeNonDelivery)

	_, err := s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, true)
	require.NoError(t, err)
	after, err := s.module.VoteOnDispute(s.ctx, s.members[2], d.ID, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedClient, after.Status)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusRefunded, job.Status)
	assertAmount(t, 0, job.EscrowBalance())
	assertAmount(t, 500+2*hbar, s.balance(s.client))

	audit, err := s.engine.Audit(s.ctx)
	require.NoError(t, err)
	assert.True(t, audit.Balanced)
}

func TestVote_SplitAtQuorumGoesToFreelancer(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeScopeChange)

	_, err := s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, true)
	require.NoError(t, err)
	final, err := s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, false)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedFreelancer, final.Status)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusConfirmed, job.Status)

	// Клиент большинства не набрал, залог ушёл в казну.
	assertAmount(t, 2*hbar, s.balance(s.treasury))
	pool, err := s.ledger.PoolBalance(s.ctx, repository.PoolDispute)
	require.NoError(t, err)
	assertAmount(t, 0, pool)

	_, err = s.module.VoteOnDispute(s.ctx, s.members[2], d.ID, true)
	assert.ErrorIs(t, err, apperror.ErrDisputeClosed)
}

func TestCreateDispute_StoreFailureKeepsJobOpen(t *testing.T) {
	store := &flakyDisputes{DisputeStore: memory.NewDisputeStore(), failCreate: true}
	s := newStackWith(t, store)
	jobID := s.fixedJob(500)
	require.NoError(t, s.ledger.TopUp(s.ctx, s.client, valueobject.AmountOf(2*hbar)))

	_, err := s.module.CreateDispute(s.ctx, s.client, entity.DisputeParams{
		JobID: jobID, Title: "Nothing delivered", Category: valueobject.DisputeNonDelivery,
	}, valueobject.AmountOf(2*hbar))
	require.ErrorIs(t, err, errStoreDown)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusPending, job.Status)
	assertAmount(t, 2*hbar, s.balance(s.client))

	list, err := s.module.ListJobDisputes(s.ctx, jobID)
	require.NoError(t, err)
	assert.Empty(t, list)

	store.failCreate = false
	d := s.dispute(s.client, jobID, valueobject.DisputeNonDelivery)
	assert.True(t, d.Status.IsOpen())
}

func TestVote_StoreFailureLeavesEscrowUntouched(t *testing.T) {
	store := &flakyDisputes{DisputeStore: memory.NewDisputeStore()}
	s := newStackWith(t, store)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeNonDelivery)

	_, err := s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, true)
	require.NoError(t, err)

	store.failUpdate = true
	_, err = s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, true)
	require.ErrorIs(t, err, errStoreDown)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusDisputed, job.Status)
	assertAmount(t, 500, job.EscrowBalance())

	stored, err := s.module.GetDispute(s.ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.IsOpen())
	assert.Len(t, stored.Votes, 1)

	store.failUpdate = false
	after, err := s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedClient, after.Status)
}

func TestVote_EscrowFailureRestoresDispute(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeNonDelivery)

	_, err := s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, true)
	require.NoError(t, err)

	require.NoError(t, s.module.SetEscrowContract(s.owner, refusingEscrow{s.engine}))
	_, err = s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, true)
	require.ErrorIs(t, err, errStoreDown)

	stored, err := s.module.GetDispute(s.ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.IsOpen())
	assert.Nil(t, stored.ResolvedAt)
	assert.Len(t, stored.Votes, 1)

	require.NoError(t, s.module.SetEscrowContract(s.owner, s.engine))
	after, err := s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedClient, after.Status)

	job, err := s.engine.GetJob(s.ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusRefunded, job.Status)
}

func TestVote_Rules(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)
	d := s.dispute(s.client, jobID, valueobject.DisputeOther)

	_, err := s.module.VoteOnDispute(s.ctx, s.client, d.ID, true)
	assert.ErrorIs(t, err, apperror.ErrOnlyDaoMember)

	_, err = s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, true)
	require.NoError(t, err)
	_, err = s.module.VoteOnDispute(s.ctx, s.members[0], d.ID, false)
	assert.ErrorIs(t, err, apperror.ErrAlreadyVoted)

	_, err = s.module.VoteOnDispute(s.ctx, s.members[1], 99, true)
	assert.ErrorIs(t, err, apperror.ErrDisputeNotFound)

	_, err = s.module.VoteOnDispute(s.ctx, s.members[1], d.ID, true)
	require.NoError(t, err)
	_, err = s.module.VoteOnDispute(s.ctx, s.members[2], d.ID, true)
	assert.ErrorIs(t, err, apperror.ErrDisputeClosed)
}

func TestCreateDispute_Rules(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)

	_, err := s.module.CreateDispute(s.ctx, s.client, entity.DisputeParams{
		JobID: jobID, Title: "Late", Category: valueobject.DisputeLateDelivery,
	}, valueobject.AmountOf(hbar))
	assert.ErrorIs(t, err, apperror.ErrStakeTooLow)

	stranger := uuid.New()
	require.NoError(t, s.ledger.TopUp(s.ctx, stranger, valueobject.AmountOf(2*hbar)))
	_, err = s.module.CreateDispute(s.ctx, stranger, entity.DisputeParams{
		JobID: jobID, Title: "Late", Category: valueobject.DisputeLateDelivery,
	}, valueobject.AmountOf(2*hbar))
	assert.ErrorIs(t, err, apperror.ErrNotParticipant)

	_, err = s.module.CreateDispute(s.ctx, s.client, entity.DisputeParams{
		JobID: jobID, Title: "Late", Category: valueobject.DisputeLateDelivery, Counterparty: stranger,
	}, valueobject.AmountOf(2*hbar))
	assert.True(t, apperror.IsValidation(err))

	_, err = s.module.CreateDispute(s.ctx, s.client, entity.DisputeParams{
		JobID: jobID, Title: "Late", Category: valueobject.DisputeCategory(9),
	}, valueobject.AmountOf(2*hbar))
	assert.ErrorIs(t, err, apperror.ErrInvalidCategory)

	first := s.dispute(s.client, jobID, valueobject.DisputeQualityIssue)
	assert.Equal(t, uint64(1), first.ID)

	// Второй спор по той же работе отклоняется, залог возвращается.
	require.NoError(t, s.ledger.TopUp(s.ctx, s.freelancer, valueobject.AmountOf(2*hbar)))
	_, err = s.module.CreateDispute(s.ctx, s.freelancer, entity.DisputeParams{
		JobID: jobID, Title: "Scope", Category: valueobject.DisputeScopeChange,
	}, valueobject.AmountOf(2*hbar))
	assert.ErrorIs(t, err, apperror.ErrJobNotDisputable)
	assertAmount(t, 2*hbar, s.balance(s.freelancer))

	list, err := s.module.ListJobDisputes(s.ctx, jobID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateDispute_RequiresWiring(t *testing.T) {
	owner := uuid.New()
	module, err := arbitration.NewModule(memory.NewDisputeStore(), memory.NewMemberStore(), memory.NewLedger(), nil, nil, arbitration.Config{
		Owner:    owner,
		Account:  uuid.New(),
		Treasury: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, arbitration.DefaultQuorum, module.Quorum())

	_, err = module.CreateDispute(context.Background(), uuid.New(), entity.DisputeParams{JobID: 1, Title: "x"}, valueobject.Zero)
	assert.ErrorIs(t, err, apperror.ErrNotWired)

	err = module.SetEscrowContract(uuid.New(), nil)
	assert.ErrorIs(t, err, apperror.ErrOnlyOwner)
}

func TestAutoResolve_Rules(t *testing.T) {
	s := newStack(t)
	jobID := s.fixedJob(500)

	quality := s.dispute(s.client, jobID, valueobject.DisputeQualityIssue)
	_, err := s.module.AutoResolveDispute(s.ctx, s.client, quality.ID)
	assert.ErrorIs(t, err, apperror.ErrNotAutoResolvable)

	other := s.fixedJob(500)
	late := s.dispute(s.client, other, valueobject.DisputeLateDelivery)

	_, err = s.module.AutoResolveDispute(s.ctx, uuid.New(), late.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = s.module.AutoResolveDispute(s.ctx, s.client, late.ID)
	assert.ErrorIs(t, err, apperror.ErrNotLate)
	stored, err := s.module.GetDispute(s.ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.IsOpen())

	s.clock.Advance(100 * time.Hour)
	resolved, err := s.module.AutoResolveDispute(s.ctx, s.members[0], late.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusResolvedLate, resolved.Status)

	job, err := s.engine.GetJob(s.ctx, other)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusPending, job.Status)
	assert.True(t, job.LatePenalty)

	_, err = s.module.AutoResolveDispute(s.ctx, s.client, late.ID)
	assert.ErrorIs(t, err, apperror.ErrDisputeClosed)
}

func TestDaoMembership(t *testing.T) {
	s := newStack(t)
	newcomer := uuid.New()

	err := s.module.AddDaoMember(s.ctx, s.client, newcomer)
	assert.ErrorIs(t, err, apperror.ErrOnlyOwner)

	require.NoError(t, s.module.AddDaoMember(s.ctx, s.owner, newcomer))
	err = s.module.AddDaoMember(s.ctx, s.owner, newcomer)
	assert.ErrorIs(t, err, apperror.ErrAlreadyMember)

	ok, err := s.module.IsDaoMember(s.ctx, newcomer)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.module.RemoveDaoMember(s.ctx, s.owner, newcomer))
	err = s.module.RemoveDaoMember(s.ctx, s.owner, newcomer)
	assert.ErrorIs(t, err, apperror.ErrMemberNotFound)

	members, err := s.module.DaoMembers(s.ctx)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}
