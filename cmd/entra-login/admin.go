package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/entra-login/internal/adapters/driven/postgres"
	"github.com/custodia-labs/entra-login/internal/adapters/driven/secrets"
	"github.com/custodia-labs/entra-login/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  `Create the configuration, account, session and lock tables. Safe to run repeatedly.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newEncryptSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt-secret [plaintext]",
		Short: "Encrypt a client secret with SERVER_SECRET",
		Long: `Print the stored form of a client secret, for seeding configuration rows
directly. The plaintext is read from stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.ServerSecret == "" {
				return errors.New("SERVER_SECRET is required")
			}

			var plaintext string
			if len(args) == 1 {
				plaintext = args[0]
			} else {
				plaintext, err = readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			if plaintext == "" {
				return errors.New("empty secret")
			}

			blob, err := secrets.NewBox(cfg.ServerSecret).Encrypt(plaintext)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), blob)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
