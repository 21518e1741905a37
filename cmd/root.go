package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "applymill"
)

type Config struct {
	CandidatesFile string `mapstructure:"candidates-file"`
	PostingsFile   string `mapstructure:"postings-file"`
	PortalURL      string `mapstructure:"portal-url"`
	DatabaseURL    string `mapstructure:"database-url"`
	Workers        int    `mapstructure:"workers"`

	Generation *GenerationConfig `mapstructure:"generation"`
	Submission *SubmissionConfig `mapstructure:"submission"`
	Vault      *VaultConfig      `mapstructure:"vault"`
	Telegram   *TelegramConfig   `mapstructure:"telegram"`
}

type GenerationConfig struct {
	WordCountMin     int           `mapstructure:"word-count-min"`
	WordCountMax     int           `mapstructure:"word-count-max"`
	QualityThreshold int           `mapstructure:"quality-threshold"`
	Gemini           *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey                string `mapstructure:"api-key"`
	APIKeyFile            string `mapstructure:"api-key-file"`
	Model                 string `mapstructure:"model"`
	BackupModel           string `mapstructure:"backup-model"`
	RequestTimeoutSeconds int    `mapstructure:"request-timeout-seconds"`
}

type SubmissionConfig struct {
	SectionAttempts      int `mapstructure:"section-attempts"`
	SectionDelaySeconds  int `mapstructure:"section-delay-seconds"`
	ActionTimeoutSeconds int `mapstructure:"action-timeout-seconds"`
}

type VaultConfig struct {
	Passphrase     string `mapstructure:"passphrase"`
	PassphraseFile string `mapstructure:"passphrase-file"`
	KeyID          string `mapstructure:"key-id"`
}

type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	ChatID    int64  `mapstructure:"chat-id"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "applymill matches candidates to postings, generates tailored statements and submits applications on the portal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database-url", "APPLYMILL_DATABASE_URL"); err != nil {
		log.Fatalf("binding APPLYMILL_DATABASE_URL environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is applymill.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Env files are optional; a missing one is not an error.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
