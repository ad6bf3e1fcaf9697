package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/freelancedao/settlement/internal/config"
	"github.com/freelancedao/settlement/internal/service"
)

// tokenCmd выпускает access токен для аккаунта. Вход по паролю в сервисе
// не предусмотрен, токены выдаются этой командой.
func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [account-uuid]",
		Short: "Выпустить JWT для аккаунта",
		Long: `Выпускает access токен, подписанный JWT_SECRET из окружения.

Examples:
  settlementctl token 1b4e28ba-2fa1-11d2-883f-0016d3cca427
  settlementctl token --role admin 00000000-0000-4000-8000-000000000001 --ttl 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("аккаунт должен быть UUID: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL
			}
			token, expires, err := service.NewTokenManager(cfg.JWTSecret, ttl).Issue(account, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "role=%s expires=%s\n", role, expires.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", service.RoleAccount, "роль в токене (account, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "время жизни токена (по умолчанию ACCESS_TOKEN_TTL)")
	return cmd
}
