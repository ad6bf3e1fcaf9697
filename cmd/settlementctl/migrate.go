package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/db"
	"github.com/freelancedao/settlement/internal/storage"
)

func migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции к базе DATABASE_URL",
		Long: `Применяет SQL миграции (встроенные или из MIGRATIONS_PATH).

Examples:
  settlementctl migrate
  settlementctl migrate --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			fsys := storage.MigrationsFS(cfg)
			pending, err := db.PendingMigrations(ctx, conn, fsys)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "Миграций к применению нет")
				return nil
			}
			for _, name := range pending {
				fmt.Fprintf(out, "  %s\n", name)
			}
			if dryRun {
				fmt.Fprintf(out, "Dry run: %d миграций не применено\n", len(pending))
				return nil
			}

			if err := db.RunMigrations(ctx, conn, fsys); err != nil {
				return err
			}
			fmt.Fprintf(out, "Применено миграций: %d\n", len(pending))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "показать ожидающие миграции без применения")
	return cmd
}
