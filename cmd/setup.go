package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/applymill/applymill/internal/application"
	"github.com/applymill/applymill/internal/logger"
	"github.com/applymill/applymill/internal/notify"
	"github.com/applymill/applymill/internal/scheduler"
	"github.com/applymill/applymill/internal/secrets"
	"github.com/applymill/applymill/internal/vault"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// backends is everything a command may need behind the config: the stores,
// the vault and the counter, backed by PostgreSQL when a database URL is
// configured and by memory otherwise.
type backends struct {
	store   application.Store
	vault   *vault.Vault
	counter scheduler.Counter
	pool    *pgxpool.Pool
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func buildBackends(ctx context.Context, config *Config) (*backends, error) {
	passphrase, err := secrets.Load(secrets.Source{
		Name:  "vault passphrase",
		Value: vaultPassphrase(config),
		File:  vaultPassphraseFile(config),
		Env:   "APPLYMILL_VAULT_PASSPHRASE",
	})
	if err != nil {
		return nil, err
	}

	b := &backends{}

	var keyID string
	if config != nil && config.Vault != nil {
		keyID = config.Vault.KeyID
	}

	if config != nil && config.DatabaseURL != "" {
		pool, err := application.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.pool = pool

		appStore := application.NewPostgresStore(pool)
		if err := appStore.Migrate(ctx); err != nil {
			return nil, err
		}
		vaultStore := vault.NewPostgresStore(pool)
		if err := vaultStore.Migrate(ctx); err != nil {
			return nil, err
		}
		counter := scheduler.NewPostgresCounter(pool)
		if err := counter.Migrate(ctx); err != nil {
			return nil, err
		}

		b.store = appStore
		b.counter = counter
		b.vault, err = vault.New([]byte(passphrase), keyID, vaultStore)
		return b, err
	}

	b.store = application.NewMemoryStore()
	b.counter = scheduler.NewMemoryCounter()
	b.vault, err = vault.New([]byte(passphrase), keyID, vault.NewMemoryStore())
	return b, err
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func buildNotifier(config *Config) (*notify.TelegramNotifier, error) {
	if config == nil || config.Telegram == nil {
		return nil, nil
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "telegram token",
		Value: config.Telegram.Token,
		File:  config.Telegram.TokenFile,
		Env:   "APPLYMILL_TELEGRAM_TOKEN",
	})
	if err != nil {
		// Telegram is optional; an unconfigured token disables it.
		return nil, nil
	}

	notifier, err := notify.NewTelegramNotifier(token, config.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("initialising telegram notifier: %w", err)
	}
	return notifier, nil
}

func vaultPassphrase(config *Config) string {
	if config == nil || config.Vault == nil {
		return ""
	}
	return config.Vault.Passphrase
}

func vaultPassphraseFile(config *Config) string {
	if config == nil || config.Vault == nil {
		return ""
	}
	return config.Vault.PassphraseFile
}
