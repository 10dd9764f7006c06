package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Account is a named credential+platform binding loaded from the accounts file.
type Account struct {
	Platform  string            `yaml:"platform"`
	Auth      map[string]string `yaml:"auth"`
	ChannelID string            `yaml:"channelId"`
	MaxBody   int               `yaml:"maxBody"`
}

// CommonConfig holds the settings consumed by the publish pipeline.
type CommonConfig struct {
	RetryAttempts         int
	RetryDelayMs          int
	IdempotencyTTLMinutes int
	RequestTimeoutSecs    int
	ProviderTimeoutSecs   int
}

type Config struct {
	// Server
	ServerPort string

	// Redis (optional; empty addr keeps the in-memory idempotency store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Accounts
	AccountsFile string
	Accounts     map[string]Account

	Common CommonConfig
}

type accountsFile struct {
	Accounts map[string]Account `yaml:"accounts"`
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		AccountsFile: getEnv("ACCOUNTS_FILE", "accounts.yaml"),

		Common: CommonConfig{
			RetryAttempts:         getEnvInt("RETRY_ATTEMPTS", 3),
			RetryDelayMs:          getEnvInt("RETRY_DELAY_MS", 500),
			IdempotencyTTLMinutes: getEnvInt("IDEMPOTENCY_TTL_MINUTES", 10),
			RequestTimeoutSecs:    getEnvInt("REQUEST_TIMEOUT_SECS", 30),
			ProviderTimeoutSecs:   getEnvInt("PROVIDER_TIMEOUT_SECS", 0),
		},
	}

	accounts, err := loadAccounts(config.AccountsFile)
	if err != nil {
		return nil, err
	}
	config.Accounts = accounts

	return config, nil
}

// GetAccount returns the named account, or false when it is not configured.
func (c *Config) GetAccount(name string) (Account, bool) {
	account, ok := c.Accounts[name]
	return account, ok
}

func loadAccounts(path string) (map[string]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No accounts file means every request must carry inline auth.
			return map[string]Account{}, nil
		}
		return nil, fmt.Errorf("failed to read accounts file %s: %w", path, err)
	}

	var parsed accountsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file %s: %w", path, err)
	}
	if parsed.Accounts == nil {
		parsed.Accounts = map[string]Account{}
	}
	return parsed.Accounts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
