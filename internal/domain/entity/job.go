package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Job: единица работы и эскроу. Все суммы в минимальных единицах.
type Job struct {
	ID          uint64
	Type        valueobject.JobType
	Client      uuid.UUID
	Freelancer  uuid.UUID
	Title       string
	Description string
	Deadline    time.Time

	TotalAmount     valueobject.Amount
	ConfirmedAmount valueobject.Amount
	Withdrawn       valueobject.Amount
	Deposited       valueobject.Amount
	Refunded        valueobject.Amount
	Funded          bool

	IsLate      bool
	LatePenalty bool
	Status      valueobject.JobStatus
	// PriorStatus: статус до открытия спора, в него работа возвращается
	// после решения по просрочке.
	PriorStatus valueobject.JobStatus

	Milestones []Milestone
	Requests   []uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Milestone struct {
	Index     int
	Amount    valueobject.Amount
	Delivered bool
	Confirmed bool
}

// JobParams: общие параметры публикации работы.
type JobParams struct {
	Title       string
	Description string
	Budget      valueobject.Budget
	Deadline    time.Time
}

func validateDeadline(deadline, now time.Time) error {
	if !deadline.After(now) {
		return apperror.ErrDeadlineNotFuture
	}
	return nil
}

// NewFixedJob создаёт работу с фиксированной оплатой. Если вместе с созданием
// переведены средства, их сумма становится totalAmount и работа сразу оплачена.
func NewFixedJob(client uuid.UUID, params JobParams, value valueobject.Amount, now time.Time) (*Job, error) {
	if err := validateDeadline(params.Deadline, now); err != nil {
		return nil, err
	}

	var total valueobject.Amount
	if value.IsPositive() {
		total = value
		if params.Budget.Max.IsPositive() {
			committed, err := params.Budget.Committed()
			if err != nil {
				return nil, err
			}
			if !committed.Equal(value) {
				return nil, apperror.ErrFundingMismatch
			}
		}
	} else {
		committed, err := params.Budget.Committed()
		if err != nil {
			return nil, err
		}
		total = committed
	}

	job := newJob(client, valueobject.JobTypeFixed, params, total, now)
	if value.IsPositive() {
		job.Funded = true
		job.Deposited = value
	}
	return job, nil
}

// NewMilestoneJob создаёт работу с этапами. Сумма этапов становится totalAmount.
// Работа может быть создана без оплаты (value == 0).
func NewMilestoneJob(client uuid.UUID, amounts []valueobject.Amount, params JobParams, value valueobject.Amount, now time.Time) (*Job, error) {
	if err := validateDeadline(params.Deadline, now); err != nil {
		return nil, err
	}
	if len(amounts) == 0 {
		return nil, apperror.ErrNoMilestones
	}

	milestones := make([]Milestone, 0, len(amounts))
	for i, amount := range amounts {
		if !amount.IsPositive() {
			return nil, apperror.ErrInvalidAmount
		}
		milestones = append(milestones, Milestone{Index: i, Amount: amount})
	}
	total := valueobject.Sum(amounts...)

	if value.IsPositive() && !value.Equal(total) {
		return nil, apperror.ErrFundingMismatch
	}

	job := newJob(client, valueobject.JobTypeMilestone, params, total, now)
	job.Milestones = milestones
	if value.IsPositive() {
		job.Funded = true
		job.Deposited = value
	}
	return job, nil
}

func newJob(client uuid.UUID, jobType valueobject.JobType, params JobParams, total valueobject.Amount, now time.Time) *Job {
	return &Job{
		Type:            jobType,
		Client:          client,
		Title:           params.Title,
		Description:     params.Description,
		Deadline:        params.Deadline,
		TotalAmount:     total,
		ConfirmedAmount: valueobject.Zero,
		Withdrawn:       valueobject.Zero,
		Deposited:       valueobject.Zero,
		Refunded:        valueobject.Zero,
		Status:          valueobject.JobStatusOpen,
		PriorStatus:     valueobject.JobStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (j *Job) IsClient(account uuid.UUID) bool {
	return account != uuid.Nil && j.Client == account
}

func (j *Job) IsFreelancer(account uuid.UUID) bool {
	return account != uuid.Nil && j.Freelancer == account
}

func (j *Job) HasFreelancer() bool {
	return j.Freelancer != uuid.Nil
}

func (j *Job) HasRequested(account uuid.UUID) bool {
	return slices.Contains(j.Requests, account)
}

func (j *Job) transition(to valueobject.JobStatus, now time.Time) error {
	if j.Status.IsTerminal() {
		return apperror.ErrJobTerminal
	}
	if !j.Status.CanTransitionTo(to) {
		return apperror.ErrInvalidStatus
	}
	j.Status = to
	j.UpdatedAt = now
	return nil
}

func (j *Job) ensureActive() error {
	if j.Status.IsTerminal() {
		return apperror.ErrJobTerminal
	}
	return nil
}

// Fund принимает оплату ранее созданной работы. Принимается только точная сумма.
func (j *Job) Fund(value valueobject.Amount, now time.Time) error {
	if err := j.ensureActive(); err != nil {
		return err
	}
	if j.Funded {
		return apperror.ErrAlreadyFunded
	}
	if j.Status != valueobject.JobStatusOpen {
		return apperror.ErrJobNotOpen
	}
	if !value.Equal(j.TotalAmount) {
		return apperror.ErrFundingMismatch
	}
	j.Funded = true
	j.Deposited = value
	j.UpdatedAt = now
	return nil
}

// Request регистрирует заявку исполнителя.
func (j *Job) Request(account uuid.UUID, now time.Time) error {
	if err := j.ensureActive(); err != nil {
		return err
	}
	if j.Status != valueobject.JobStatusOpen || j.HasFreelancer() {
		return apperror.ErrJobNotOpen
	}
	if j.HasRequested(account) {
		return apperror.ErrAlreadyRequested
	}
	j.Requests = append(j.Requests, account)
	j.UpdatedAt = now
	return nil
}

// Approve назначает исполнителя из числа подавших заявку.
func (j *Job) Approve(freelancer uuid.UUID, now time.Time) error {
	if err := j.ensureActive(); err != nil {
		return err
	}
	if j.HasFreelancer() {
		return apperror.ErrProviderApproved
	}
	if !j.Funded {
		return apperror.ErrNotFunded
	}
	if !j.HasRequested(freelancer) {
		return apperror.ErrNotRequested
	}
	if err := j.transition(valueobject.JobStatusPending, now); err != nil {
		return err
	}
	j.Freelancer = freelancer
	return nil
}

// MarkDelivery отмечает сдачу работы (или этапа) и возвращает признак просрочки.
// Флаг IsLate выставляется один раз и больше не сбрасывается.
func (j *Job) MarkDelivery(index int, now time.Time) (bool, error) {
	if err := j.ensureActive(); err != nil {
		return false, err
	}
	if j.Status != valueobject.JobStatusPending {
		return false, apperror.ErrInvalidStatus
	}

	switch j.Type {
	case valueobject.JobTypeFixed:
		if err := j.transition(valueobject.JobStatusDelivery, now); err != nil {
			return false, err
		}
	case valueobject.JobTypeMilestone:
		m, err := j.milestone(index)
		if err != nil {
			return false, err
		}
		if m.Confirmed {
			return false, apperror.ErrMilestoneConfirmed
		}
		if m.Delivered {
			return false, apperror.ErrMilestoneDelivered
		}
		m.Delivered = true
	}

	late := now.After(j.Deadline)
	if late {
		j.IsLate = true
	}
	j.UpdatedAt = now
	return late, nil
}

// ConfirmFixed подтверждает фиксированную работу и разблокирует всю сумму.
func (j *Job) ConfirmFixed(now time.Time) (valueobject.Amount, error) {
	if j.Type != valueobject.JobTypeFixed {
		return valueobject.Amount{}, apperror.ErrWrongJobType
	}
	if err := j.ensureActive(); err != nil {
		return valueobject.Amount{}, err
	}
	if j.Status != valueobject.JobStatusDelivery {
		return valueobject.Amount{}, apperror.ErrInvalidStatus
	}
	if err := j.transition(valueobject.JobStatusConfirmed, now); err != nil {
		return valueobject.Amount{}, err
	}
	j.ConfirmedAmount = j.TotalAmount
	return j.TotalAmount, nil
}

// ConfirmMilestone подтверждает сданный этап. Когда подтверждены все этапы,
// работа переходит в CONFIRMED.
func (j *Job) ConfirmMilestone(index int, now time.Time) (valueobject.Amount, error) {
	if j.Type != valueobject.JobTypeMilestone {
		return valueobject.Amount{}, apperror.ErrWrongJobType
	}
	if err := j.ensureActive(); err != nil {
		return valueobject.Amount{}, err
	}
	if j.Status != valueobject.JobStatusPending {
		return valueobject.Amount{}, apperror.ErrInvalidStatus
	}
	m, err := j.milestone(index)
	if err != nil {
		return valueobject.Amount{}, err
	}
	if m.Confirmed {
		return valueobject.Amount{}, apperror.ErrMilestoneConfirmed
	}
	if !m.Delivered {
		return valueobject.Amount{}, apperror.ErrMilestoneNotDelivered
	}

	m.Confirmed = true
	j.ConfirmedAmount = j.ConfirmedAmount.Add(m.Amount)
	j.UpdatedAt = now

	if j.AllMilestonesConfirmed() {
		if err := j.transition(valueobject.JobStatusConfirmed, now); err != nil {
			return valueobject.Amount{}, err
		}
	}
	return m.Amount, nil
}

// Cancel отменяет работу до назначения исполнителя и возвращает внесённую сумму.
func (j *Job) Cancel(now time.Time) (valueobject.Amount, error) {
	if err := j.ensureActive(); err != nil {
		return valueobject.Amount{}, err
	}
	if j.Status != valueobject.JobStatusOpen || j.HasFreelancer() {
		return valueobject.Amount{}, apperror.ErrJobNotOpen
	}
	refund := j.Deposited
	if err := j.transition(valueobject.JobStatusCancelled, now); err != nil {
		return valueobject.Amount{}, err
	}
	j.Refunded = j.Refunded.Add(refund)
	return refund, nil
}

// RequestRefund возвращает клиенту всё, что ещё не подтверждено.
// Подтверждённые этапы остаются доступны исполнителю.
func (j *Job) RequestRefund(now time.Time) (valueobject.Amount, error) {
	if j.Type != valueobject.JobTypeMilestone {
		return valueobject.Amount{}, apperror.ErrWrongJobType
	}
	if err := j.ensureActive(); err != nil {
		return valueobject.Amount{}, err
	}
	if !j.Funded {
		return valueobject.Amount{}, apperror.ErrNotFunded
	}
	if j.Status == valueobject.JobStatusDisputed {
		return valueobject.Amount{}, apperror.ErrInvalidStatus
	}
	refund, err := j.refundable()
	if err != nil {
		return valueobject.Amount{}, err
	}
	if refund.IsZero() {
		return valueobject.Amount{}, apperror.ErrNothingToRefund
	}
	if err := j.transition(valueobject.JobStatusRefunded, now); err != nil {
		return valueobject.Amount{}, err
	}
	j.Refunded = j.Refunded.Add(refund)
	return refund, nil
}

func (j *Job) refundable() (valueobject.Amount, error) {
	locked := j.ConfirmedAmount.Add(j.Refunded)
	return j.Deposited.Sub(locked)
}

// Payable: подтверждённая, но ещё не выплаченная сумма.
func (j *Job) Payable() valueobject.Amount {
	payable, err := j.ConfirmedAmount.Sub(j.Withdrawn)
	if err != nil {
		return valueobject.Zero
	}
	return payable
}

// WithdrawalTier выбирает уровень комиссии для текущей выплаты.
func (j *Job) WithdrawalTier() valueobject.FeeTier {
	if j.Type == valueobject.JobTypeMilestone && !j.Status.IsTerminal() && !j.AllMilestonesConfirmed() {
		return valueobject.FeeTierEarly
	}
	if j.IsLate || j.LatePenalty {
		return valueobject.FeeTierLate
	}
	return valueobject.FeeTierStandard
}

// RecordWithdrawal фиксирует выплату. withdrawn растёт на всю сумму, включая комиссию.
func (j *Job) RecordWithdrawal(payable valueobject.Amount, now time.Time) error {
	next := j.Withdrawn.Add(payable)
	if next.GreaterThan(j.ConfirmedAmount) {
		return apperror.ErrOverWithdrawal
	}
	j.Withdrawn = next
	j.UpdatedAt = now
	return nil
}

// OpenDispute переводит работу в DISPUTED. Одновременно открыт только один спор.
func (j *Job) OpenDispute(now time.Time) error {
	if err := j.ensureActive(); err != nil {
		return err
	}
	if !j.Funded || !j.HasFreelancer() {
		return apperror.ErrJobNotDisputable
	}
	if j.Status != valueobject.JobStatusPending && j.Status != valueobject.JobStatusDelivery {
		return apperror.ErrJobNotDisputable
	}
	prior := j.Status
	if err := j.transition(valueobject.JobStatusDisputed, now); err != nil {
		return err
	}
	j.PriorStatus = prior
	return nil
}

// ResolveForClient возвращает клиенту неподтверждённую часть и закрывает работу.
func (j *Job) ResolveForClient(now time.Time) (valueobject.Amount, error) {
	if j.Status != valueobject.JobStatusDisputed {
		return valueobject.Amount{}, apperror.ErrInvalidStatus
	}
	refund, err := j.refundable()
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := j.transition(valueobject.JobStatusRefunded, now); err != nil {
		return valueobject.Amount{}, err
	}
	j.Refunded = j.Refunded.Add(refund)
	return refund, nil
}

// ResolveForFreelancer закрывает спор в пользу исполнителя.
// Для FeeTierLate работа возвращается в прежний статус с закреплённой
// повышенной комиссией и ждёт подтверждения клиента. Иначе вся сумма
// подтверждается сразу. Возвращает сумму, ставшую доступной к выплате.
func (j *Job) ResolveForFreelancer(tier valueobject.FeeTier, now time.Time) (valueobject.Amount, error) {
	if j.Status != valueobject.JobStatusDisputed {
		return valueobject.Amount{}, apperror.ErrInvalidStatus
	}

	switch tier {
	case valueobject.FeeTierLate:
		if !now.After(j.Deadline) {
			return valueobject.Amount{}, apperror.ErrNotLate
		}
		if err := j.transition(j.PriorStatus, now); err != nil {
			return valueobject.Amount{}, err
		}
		j.IsLate = true
		j.LatePenalty = true
		return valueobject.Zero, nil
	case valueobject.FeeTierStandard:
		released, err := j.TotalAmount.Sub(j.ConfirmedAmount)
		if err != nil {
			return valueobject.Amount{}, err
		}
		if err := j.transition(valueobject.JobStatusConfirmed, now); err != nil {
			return valueobject.Amount{}, err
		}
		for i := range j.Milestones {
			j.Milestones[i].Delivered = true
			j.Milestones[i].Confirmed = true
		}
		j.ConfirmedAmount = j.TotalAmount
		return released, nil
	default:
		return valueobject.Amount{}, apperror.ErrInvalidFeeTier
	}
}

// EscrowBalance: сколько средств этой работы сейчас находится в хранении.
func (j *Job) EscrowBalance() valueobject.Amount {
	out := j.Withdrawn.Add(j.Refunded)
	balance, err := j.Deposited.Sub(out)
	if err != nil {
		return valueobject.Zero
	}
	return balance
}

// CheckInvariants проверяет withdrawn <= confirmed <= total и баланс хранения.
func (j *Job) CheckInvariants() error {
	if j.Withdrawn.GreaterThan(j.ConfirmedAmount) || j.ConfirmedAmount.GreaterThan(j.TotalAmount) {
		return apperror.ErrConservation
	}
	if j.Deposited.GreaterThan(j.TotalAmount) {
		return apperror.ErrConservation
	}
	if j.Withdrawn.Add(j.Refunded).GreaterThan(j.Deposited) {
		return apperror.ErrConservation
	}
	return nil
}

func (j *Job) AllMilestonesConfirmed() bool {
	if len(j.Milestones) == 0 {
		return false
	}
	for _, m := range j.Milestones {
		if !m.Confirmed {
			return false
		}
	}
	return true
}

func (j *Job) milestone(index int) (*Milestone, error) {
	if index < 0 || index >= len(j.Milestones) {
		return nil, apperror.ErrMilestoneNotFound
	}
	return &j.Milestones[index], nil
}

// Milestone возвращает копию этапа.
func (j *Job) Milestone(index int) (Milestone, error) {
	m, err := j.milestone(index)
	if err != nil {
		return Milestone{}, err
	}
	return *m, nil
}

// Clone делает глубокую копию, чтобы хранилище и вызывающий код не делили срезы.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Milestones = slices.Clone(j.Milestones)
	cp.Requests = slices.Clone(j.Requests)
	return &cp
}
