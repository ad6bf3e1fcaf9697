package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/freelancedao/settlement/internal/app"
	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/pkg/clock"
	"github.com/freelancedao/settlement/internal/storage"
)

// tinybar в одном HBAR
const hbar = 100_000_000

func simulateCmd() *cobra.Command {
	var scenario string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Прогнать сценарий расчётов на хранилище в памяти",
		Long: `Прогоняет сценарий от создания работы до вывода средств и печатает итог.

Сценарии:
  a  фиксированная работа 10 HBAR, сдана вовремя (комиссия 5%)
  b  фиксированная работа 100 HBAR, просрочка, спор LATE_DELIVERY (комиссия 7%)
  c  работа с этапами [50, 50], досрочный вывод первого этапа (комиссия 10%)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, err := simulate(ctx, cmd.OutOrStdout(), scenario)
			return err
		},
	}
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "a", "сценарий: a, b или c")
	return cmd
}

type simulationResult struct {
	Net      valueobject.Amount
	Fee      valueobject.Amount
	Treasury valueobject.Amount
	Events   []entity.EventName
}

type simulation struct {
	ctx        context.Context
	out        io.Writer
	cfg        *config.Config
	backend    *storage.Backend
	settlement *app.Settlement
	clock      *clock.Manual
	recorder   *events.Recorder
	client     uuid.UUID
	freelancer uuid.UUID
}

func newSimulation(ctx context.Context, out io.Writer) (*simulation, error) {
	cfg := &config.Config{
		OwnerAccount:       uuid.MustParse("00000000-0000-4000-8000-000000000001"),
		TreasuryAccount:    uuid.MustParse("00000000-0000-4000-8000-000000000002"),
		ArbitrationAccount: uuid.MustParse("00000000-0000-4000-8000-000000000003"),
		Fees:               valueobject.DefaultFeeSchedule(),
		DisputeQuorum:      2,
		DisputeMinStake:    valueobject.AmountOf(2 * hbar),
	}
	s := &simulation{
		ctx:        ctx,
		out:        out,
		cfg:        cfg,
		backend:    storage.NewMemory(),
		clock:      clock.NewManual(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)),
		recorder:   &events.Recorder{},
		client:     uuid.MustParse("00000000-0000-4000-8000-00000000000a"),
		freelancer: uuid.MustParse("00000000-0000-4000-8000-00000000000b"),
	}
	settlement, err := app.NewSettlement(ctx, cfg, s.backend, events.Fanout{events.LogSink{}, s.recorder}, s.clock)
	if err != nil {
		return nil, err
	}
	s.settlement = settlement
	return s, nil
}

func simulate(ctx context.Context, out io.Writer, scenario string) (simulationResult, error) {
	s, err := newSimulation(ctx, out)
	if err != nil {
		return simulationResult{}, err
	}

	var run func() (uint64, error)
	switch strings.ToLower(scenario) {
	case "a":
		run = s.onTimeFixedJob
	case "b":
		run = s.lateFixedJob
	case "c":
		run = s.earlyMilestoneWithdrawal
	default:
		return simulationResult{}, fmt.Errorf("неизвестный сценарий %q", scenario)
	}

	jobID, err := run()
	if err != nil {
		return simulationResult{}, err
	}
	w, err := s.settlement.Engine.Withdraw(ctx, s.freelancer, jobID)
	if err != nil {
		return simulationResult{}, err
	}
	s.step("freelancer withdraws: payable %s, fee %s (%d bps, %s), net %s",
		hbars(w.Payable), hbars(w.Fee), w.FeeBps, w.Tier, hbars(w.Net))

	treasury, err := s.backend.Ledger.Balance(ctx, s.cfg.TreasuryAccount)
	if err != nil {
		return simulationResult{}, err
	}
	audit, err := s.settlement.Engine.Audit(ctx)
	if err != nil {
		return simulationResult{}, err
	}
	s.step("treasury %s, escrow pool %s, balanced=%t", hbars(treasury), hbars(audit.PoolBalance), audit.Balanced)

	trail := s.recorder.Names()
	names := make([]string, len(trail))
	for i, n := range trail {
		names[i] = string(n)
	}
	s.step("events: %s", strings.Join(names, " -> "))
	return simulationResult{Net: w.Net, Fee: w.Fee, Treasury: treasury, Events: trail}, nil
}

func (s *simulation) step(format string, args ...any) {
	fmt.Fprintf(s.out, "[%s] %s\n", s.clock.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

func (s *simulation) hire(job *entity.Job) error {
	engine := s.settlement.Engine
	if err := engine.RequestJob(s.ctx, s.freelancer, job.ID); err != nil {
		return err
	}
	if err := engine.ApproveProvider(s.ctx, s.client, job.ID, s.freelancer); err != nil {
		return err
	}
	s.step("job #%d: freelancer %s approved", job.ID, s.freelancer)
	return nil
}

func (s *simulation) fixedJob(total int64) (*entity.Job, error) {
	value := valueobject.AmountOf(total * hbar)
	if err := s.backend.Ledger.TopUp(s.ctx, s.client, value); err != nil {
		return nil, err
	}
	job, err := s.settlement.Engine.CreateFixedJob(s.ctx, s.client, entity.JobParams{
		Title:    "Landing page",
		Deadline: s.clock.Now().Add(72 * time.Hour),
	}, value)
	if err != nil {
		return nil, err
	}
	s.step("job #%d created and funded with %s", job.ID, hbars(value))
	return job, s.hire(job)
}

func (s *simulation) onTimeFixedJob() (uint64, error) {
	engine := s.settlement.Engine
	job, err := s.fixedJob(10)
	if err != nil {
		return 0, err
	}
	s.clock.Advance(48 * time.Hour)
	if _, err := engine.MarkDelivery(s.ctx, s.freelancer, job.ID, 0); err != nil {
		return 0, err
	}
	s.step("delivered before the deadline")
	if _, err := engine.ConfirmFixedJob(s.ctx, s.client, job.ID); err != nil {
		return 0, err
	}
	s.step("client confirmed")
	return job.ID, nil
}

func (s *simulation) lateFixedJob() (uint64, error) {
	engine := s.settlement.Engine
	arbitration := s.settlement.Arbitration
	job, err := s.fixedJob(100)
	if err != nil {
		return 0, err
	}
	s.clock.Advance(96 * time.Hour)
	if _, err := engine.MarkDelivery(s.ctx, s.freelancer, job.ID, 0); err != nil {
		return 0, err
	}
	s.step("delivered 24h after the deadline")

	stake := arbitration.MinStake()
	if err := s.backend.Ledger.TopUp(s.ctx, s.client, stake); err != nil {
		return 0, err
	}
	dispute, err := arbitration.CreateDispute(s.ctx, s.client, entity.DisputeParams{
		JobID:    job.ID,
		Title:    "Missed deadline",
		Category: valueobject.DisputeLateDelivery,
	}, stake)
	if err != nil {
		return 0, err
	}
	s.step("dispute #%d opened (%s), stake %s", dispute.ID, dispute.Category, hbars(stake))

	dispute, err = arbitration.AutoResolveDispute(s.ctx, s.client, dispute.ID)
	if err != nil {
		return 0, err
	}
	s.step("dispute #%d auto-resolved: %s", dispute.ID, dispute.Status)

	if _, err := engine.ConfirmFixedJob(s.ctx, s.client, job.ID); err != nil {
		return 0, err
	}
	s.step("client confirmed")
	return job.ID, nil
}

func (s *simulation) earlyMilestoneWithdrawal() (uint64, error) {
	engine := s.settlement.Engine
	amounts := []valueobject.Amount{valueobject.AmountOf(50 * hbar), valueobject.AmountOf(50 * hbar)}
	total := valueobject.Sum(amounts...)
	if err := s.backend.Ledger.TopUp(s.ctx, s.client, total); err != nil {
		return 0, err
	}
	job, err := engine.CreateMilestoneJob(s.ctx, s.client, amounts, entity.JobParams{
		Title:    "Mobile app",
		Deadline: s.clock.Now().Add(30 * 24 * time.Hour),
	}, total)
	if err != nil {
		return 0, err
	}
	s.step("milestone job #%d created and funded with %s", job.ID, hbars(total))
	if err := s.hire(job); err != nil {
		return 0, err
	}

	if _, err := engine.MarkDelivery(s.ctx, s.freelancer, job.ID, 0); err != nil {
		return 0, err
	}
	if _, err := engine.ConfirmMilestone(s.ctx, s.client, job.ID, 0); err != nil {
		return 0, err
	}
	s.step("milestone 0 confirmed, milestone 1 still open")
	return job.ID, nil
}

func hbars(a valueobject.Amount) string {
	return a.Decimal().Shift(-8).String() + " HBAR"
}
