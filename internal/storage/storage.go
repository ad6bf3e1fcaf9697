package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/db"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/infrastructure/memory"
	"github.com/freelancedao/settlement/internal/infrastructure/persistence"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/migrations"
)

// Backend объединяет все хранилища расчётов. DB равен nil для хранения в памяти.
type Backend struct {
	Jobs     repository.JobRepository
	Disputes repository.DisputeRepository
	Members  repository.MemberRepository
	Ledger   repository.Ledger
	Journal  repository.EventJournal
	DB       *sqlx.DB
}

// NewMemory создаёт хранилища в памяти.
func NewMemory() *Backend {
	return &Backend{
		Jobs:     memory.NewJobStore(),
		Disputes: memory.NewDisputeStore(),
		Members:  memory.NewMemberStore(),
		Ledger:   memory.NewLedger(),
		Journal:  memory.NewJournal(),
	}
}

// NewPostgres создаёт хранилища поверх открытого соединения.
func NewPostgres(conn *sqlx.DB) *Backend {
	return &Backend{
		Jobs:     persistence.NewJobRepository(conn),
		Disputes: persistence.NewDisputeRepository(conn),
		Members:  persistence.NewMemberRepository(conn),
		Ledger:   persistence.NewLedger(conn),
		Journal:  persistence.NewEventJournal(conn),
		DB:       conn,
	}
}

// Open выбирает хранилище по STORAGE_DRIVER. Для postgres подключается
// к базе и применяет миграции.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.WithFields(logrus.Fields{"driver": cfg.StorageDriver}).Warn("storage: данные хранятся в памяти и пропадут при перезапуске")
		return NewMemory(), nil
	case config.StoragePostgres:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, conn, MigrationsFS(cfg)); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return NewPostgres(conn), nil
	}
	return nil, fmt.Errorf("storage: неизвестный драйвер %q", cfg.StorageDriver)
}

// MigrationsFS возвращает встроенные миграции или каталог MIGRATIONS_PATH.
func MigrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsPath != "" {
		return os.DirFS(cfg.MigrationsPath)
	}
	return migrations.FS
}

// Close закрывает соединение с базой, если оно есть.
func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}
