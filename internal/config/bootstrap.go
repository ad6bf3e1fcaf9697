package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

// Bootstrap описывает начальное состояние DAO из YAML файла:
//
//	treasury: 7c9e6679-7425-40de-944b-e07fc1f90ae7
//	quorum: 3
//	min_stake: "200000000"
//	fees:
//	  standard_bps: 500
//	  late_bps: 700
//	  early_bps: 1000
//	members:
//	  - 1b4e28ba-2fa1-11d2-883f-0016d3cca427
type Bootstrap struct {
	Treasury *uuid.UUID              `yaml:"treasury"`
	Quorum   int                     `yaml:"quorum"`
	MinStake string                  `yaml:"min_stake"`
	Fees     *valueobject.FeeSchedule `yaml:"fees"`
	Members  []uuid.UUID             `yaml:"members"`

	minStake valueobject.Amount
}

func LoadBootstrap(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: не удалось прочитать %s: %w", path, err)
	}
	return ParseBootstrap(data)
}

func ParseBootstrap(data []byte) (*Bootstrap, error) {
	var b Bootstrap
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("config: некорректный bootstrap файл: %w", err)
	}
	if b.Quorum < 0 {
		return nil, fmt.Errorf("config: quorum должен быть положительным")
	}
	if b.MinStake != "" {
		stake, err := valueobject.ParseAmount(b.MinStake)
		if err != nil {
			return nil, fmt.Errorf("config: min_stake: %w", err)
		}
		b.minStake = stake
	}
	if b.Fees != nil {
		if err := b.Fees.Validate(); err != nil {
			return nil, fmt.Errorf("config: fees: %w", err)
		}
	}
	seen := make(map[uuid.UUID]struct{}, len(b.Members))
	for _, m := range b.Members {
		if m == uuid.Nil {
			return nil, fmt.Errorf("config: пустой аккаунт в members")
		}
		if _, dup := seen[m]; dup {
			return nil, fmt.Errorf("config: участник %s указан дважды", m)
		}
		seen[m] = struct{}{}
	}
	return &b, nil
}

// Apply переносит заданные в файле значения поверх переменных окружения.
func (b *Bootstrap) Apply(cfg *Config) {
	if b.Treasury != nil {
		cfg.TreasuryAccount = *b.Treasury
	}
	if b.Quorum > 0 {
		cfg.DisputeQuorum = b.Quorum
	}
	if b.MinStake != "" {
		cfg.DisputeMinStake = b.minStake
	}
	if b.Fees != nil {
		cfg.Fees = *b.Fees
	}
}
