package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dnbasta/ynab-split-budget/internal/core/domain"
)

// UserConfig holds one user's credentials and shared-account wiring.
type UserConfig struct {
	Name                 string `mapstructure:"name" validate:"required"`
	Token                string `mapstructure:"token" validate:"required"`
	BudgetID             string `mapstructure:"budget_id" validate:"required"`
	SplitAccountID       string `mapstructure:"split_account_id" validate:"required"`
	SplitTransferPayeeID string `mapstructure:"split_transfer_payee_id" validate:"required"`
}

// Config holds application configuration.
type Config struct {
	User1        UserConfig `mapstructure:"user_1" validate:"required"`
	User2        UserConfig `mapstructure:"user_2" validate:"required"`
	FlagColor    string     `mapstructure:"flag_color"`
	CursorPath   string     `mapstructure:"cursor_path"`
	Port         string     `mapstructure:"port"`
	Schedule     string     `mapstructure:"schedule"`
	APISecret    string     `mapstructure:"api_secret"`
	IsProduction bool       `mapstructure:"is_production"`
}

// User converts a user section to its domain representation.
func (u UserConfig) User() domain.User {
	return domain.User{
		Name:                 u.Name,
		BudgetID:             u.BudgetID,
		SplitAccountID:       u.SplitAccountID,
		SplitTransferPayeeID: u.SplitTransferPayeeID,
	}
}

// LoadConfig loads configuration from the given YAML file, with environment
// variables (prefix YSB_, e.g. YSB_USER_1_TOKEN) overriding file values.
// A .env file is honored when present.
func LoadConfig(path string) (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("flag_color", "purple")
	v.SetDefault("cursor_path", "last_server_knowledge.yaml")
	v.SetDefault("port", "8080")
	v.SetDefault("schedule", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("is_production", false)

	v.SetEnvPrefix("YSB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
