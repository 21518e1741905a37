package cmd

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage stored portal credentials and submission authorization",
}

var vaultStoreCmd = &cobra.Command{
	Use:   "store <candidate-id>",
	Short: "Encrypt and store a candidate's portal credential",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withVault(args[0], func(ctx context.Context, v *vault.Vault, candidateID uuid.UUID, logger *zap.Logger) error {
			username := cmd.Flag("username").Value.String()
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}

			// The password never hits the shell history or the config file.
			prompt := promptui.Prompt{Label: "Portal password", Mask: '*'}
			password, err := prompt.Run()
			if err != nil {
				return err
			}

			cred := vault.Credential{Username: username, Password: []byte(password)}
			if err := v.Store(ctx, candidateID, cred); err != nil {
				return err
			}
			vault.Wipe(cred.Password)

			logger.Info("credential stored", zap.String("candidate_id", candidateID.String()))
			return nil
		})
	},
}

var vaultAuthorizeCmd = &cobra.Command{
	Use:   "authorize <candidate-id>",
	Short: "Allow automated submissions for the candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withVault(args[0], func(ctx context.Context, v *vault.Vault, candidateID uuid.UUID, logger *zap.Logger) error {
			if err := v.Authorize(ctx, candidateID); err != nil {
				return err
			}
			logger.Info("candidate authorized", zap.String("candidate_id", candidateID.String()))
			return nil
		})
	},
}

var vaultRevokeCmd = &cobra.Command{
	Use:   "revoke <candidate-id>",
	Short: "Refuse further automated submissions for the candidate",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withVault(args[0], func(ctx context.Context, v *vault.Vault, candidateID uuid.UUID, logger *zap.Logger) error {
			if err := v.Revoke(ctx, candidateID); err != nil {
				return err
			}
			logger.Info("candidate authorization revoked", zap.String("candidate_id", candidateID.String()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultStoreCmd, vaultAuthorizeCmd, vaultRevokeCmd)

	vaultStoreCmd.Flags().StringP("username", "u", "", "portal username for the candidate")
}

func withVault(rawID string, fn func(ctx context.Context, v *vault.Vault, candidateID uuid.UUID, logger *zap.Logger) error) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	candidateID, err := uuid.Parse(rawID)
	if err != nil {
		logger.Fatal("candidate id must be a uuid", zap.Error(err))
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	backendSet, err := buildBackends(ctx, config)
	if err != nil {
		logger.Fatal("preparing storage", zap.Error(err))
	}
	defer backendSet.Close()

	if err := fn(ctx, backendSet.vault, candidateID, logger); err != nil {
		logger.Fatal("vault operation failed", zap.Error(err))
	}
}
