package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// TokenConfig fixes the immutable token parameters at boot. Cap is the hard
// issuance ceiling and never changes for the lifetime of the deployment.
type TokenConfig struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
	Cap      uint64 `yaml:"cap"`
}

// AccountsConfig names the administrative and operator accounts seeded at
// boot. RegistryOperator receives the ledger issuer role; ExchangeOperator
// is the allowance spender for settlements.
type AccountsConfig struct {
	LedgerAdmin      string `yaml:"ledger_admin"`
	RegistryAdmin    string `yaml:"registry_admin"`
	ExchangeAdmin    string `yaml:"exchange_admin"`
	RegistryOperator string `yaml:"registry_operator"`
	ExchangeOperator string `yaml:"exchange_operator"`
}

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string         `yaml:"service_name"`
	HTTPPort     string         `yaml:"http_port"`
	PostgresDSN  string         `yaml:"postgres_dsn"`
	KafkaBrokers []string       `yaml:"kafka_brokers"`
	Token        TokenConfig    `yaml:"token"`
	Accounts     AccountsConfig `yaml:"accounts"`
}

// Load reads configuration from the environment, optionally layered on top
// of a yaml file named by CONFIG_FILE. Environment values win.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Token.Cap == 0 {
		return Config{}, fmt.Errorf("token cap must be greater than zero")
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ServiceName:  "greenloop",
		HTTPPort:     "8080",
		KafkaBrokers: []string{"localhost:9092"},
		Token: TokenConfig{
			Name:     "GreenLoop Credit",
			Symbol:   "GLC",
			Decimals: 18,
			Cap:      1_000_000_000,
		},
		Accounts: AccountsConfig{
			LedgerAdmin:      "acct-ledger-admin",
			RegistryAdmin:    "acct-registry-admin",
			ExchangeAdmin:    "acct-exchange-admin",
			RegistryOperator: "acct-registry-operator",
			ExchangeOperator: "acct-exchange-operator",
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.ServiceName, "SERVICE_NAME")
	setString(&cfg.HTTPPort, "HTTP_PORT")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")

	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		var brokers []string
		for _, value := range strings.Split(raw, ",") {
			value = strings.TrimSpace(value)
			if value != "" {
				brokers = append(brokers, value)
			}
		}
		if len(brokers) > 0 {
			cfg.KafkaBrokers = brokers
		}
	}

	setString(&cfg.Token.Name, "TOKEN_NAME")
	setString(&cfg.Token.Symbol, "TOKEN_SYMBOL")
	setInt(&cfg.Token.Decimals, "TOKEN_DECIMALS")
	setUint64(&cfg.Token.Cap, "TOKEN_CAP")

	setString(&cfg.Accounts.LedgerAdmin, "LEDGER_ADMIN_ACCOUNT")
	setString(&cfg.Accounts.RegistryAdmin, "REGISTRY_ADMIN_ACCOUNT")
	setString(&cfg.Accounts.ExchangeAdmin, "EXCHANGE_ADMIN_ACCOUNT")
	setString(&cfg.Accounts.RegistryOperator, "REGISTRY_OPERATOR_ACCOUNT")
	setString(&cfg.Accounts.ExchangeOperator, "EXCHANGE_OPERATOR_ACCOUNT")
}

func setString(target *string, name string) {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		*target = value
	}
}

func setInt(target *int, name string) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil {
		*target = value
	}
}

func setUint64(target *uint64, name string) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return
	}
	if value, err := strconv.ParseUint(raw, 10, 64); err == nil {
		*target = value
	}
}
