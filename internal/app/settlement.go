package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/arbitration"
	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/escrow"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
	"github.com/freelancedao/settlement/internal/pkg/clock"
	"github.com/freelancedao/settlement/internal/storage"
)

// Settlement: связанные между собой движок эскроу и модуль арбитража.
type Settlement struct {
	Engine      *escrow.Engine
	Arbitration *arbitration.Module
}

// NewSettlement создаёт движок и модуль, регистрирует их друг у друга
// от имени владельца и добавляет участников DAO из bootstrap файла.
func NewSettlement(ctx context.Context, cfg *config.Config, backend *storage.Backend, sink events.Sink, clk clock.Clock) (*Settlement, error) {
	engine, err := escrow.NewEngine(backend.Jobs, backend.Ledger, sink, clk, escrow.Config{
		Owner:    cfg.OwnerAccount,
		Treasury: cfg.TreasuryAccount,
		Fees:     cfg.Fees,
	})
	if err != nil {
		return nil, fmt.Errorf("app: движок эскроу: %w", err)
	}

	module, err := arbitration.NewModule(backend.Disputes, backend.Members, backend.Ledger, sink, clk, arbitration.Config{
		Owner:    cfg.OwnerAccount,
		Account:  cfg.ArbitrationAccount,
		Treasury: cfg.TreasuryAccount,
		Quorum:   cfg.DisputeQuorum,
		MinStake: cfg.DisputeMinStake,
	})
	if err != nil {
		return nil, fmt.Errorf("app: модуль арбитража: %w", err)
	}

	if err := engine.SetDisputeContract(ctx, cfg.OwnerAccount, module.Account()); err != nil {
		return nil, fmt.Errorf("app: регистрация модуля арбитража: %w", err)
	}
	if err := module.SetEscrowContract(cfg.OwnerAccount, engine); err != nil {
		return nil, fmt.Errorf("app: регистрация движка эскроу: %w", err)
	}

	if cfg.Bootstrap != nil {
		for _, member := range cfg.Bootstrap.Members {
			err := module.AddDaoMember(ctx, cfg.OwnerAccount, member)
			if errors.Is(err, apperror.ErrAlreadyMember) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("app: участник DAO %s: %w", member, err)
			}
			logger.WithFields(logrus.Fields{"member": member}).Info("app: участник DAO добавлен")
		}
	}

	return &Settlement{Engine: engine, Arbitration: module}, nil
}
