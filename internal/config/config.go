package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for shopbot.
type Config struct {
	General       GeneralConfig             `json:"general"`
	Webhook       WebhookConfig             `json:"webhook"`
	Admin         AdminConfig               `json:"admin"`
	Store         StoreConfig               `json:"store"`
	Context       ContextConfig             `json:"context"`
	Providers     map[string]ProviderConfig `json:"providers"`
	Replies       RepliesConfig             `json:"replies"`
	Notifications NotificationsConfig       `json:"notifications"`
	Metrics       MetricsConfig             `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	// FailoverChain is the provider order for the fallback handler:
	// preferred first, then the alternates.
	FailoverChain []string `json:"failoverChain,omitempty"`
}

// WebhookConfig configures the fulfillment webhook server.
type WebhookConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Path   string `json:"path"`
	Secret string `json:"secret,omitempty"` // HMAC secret for signature verification
}

// AdminConfig configures the dashboard REST API server.
type AdminConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
	// Seed loads the demo catalog into an empty database on startup.
	Seed bool `json:"seed"`
}

// ContextConfig selects the conversational context store backend.
type ContextConfig struct {
	Backend    string `json:"backend"` // "memory" | "redis"
	RedisAddr  string `json:"redisAddr,omitempty"`
	RedisPass  string `json:"redisPassword,omitempty"`
	RedisDB    int    `json:"redisDb,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"` // wall-clock backstop for abandoned sessions
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

// RepliesConfig points at an optional directory of YAML reply catalogs
// overriding the embedded defaults.
type RepliesConfig struct {
	Dir string `json:"dir,omitempty"`
}

type NotificationsConfig struct {
	Enabled bool             `json:"enabled"`
	Email   EmailConfig      `json:"email"`
	SMS     SMSGatewayConfig `json:"sms"`
}

type EmailConfig struct {
	Enabled  bool   `json:"enabled"`
	SMTPHost string `json:"smtpHost"`
	SMTPPort int    `json:"smtpPort"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	From     string `json:"from"`
}

// SMSGatewayConfig configures the HTTP SMS/WhatsApp gateway.
type SMSGatewayConfig struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"baseUrl,omitempty"`
	APIKey  string `json:"apiKey,omitempty"`
}

type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// DefaultConfigDir returns the default config directory (~/.shopbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopbot"
	}
	return filepath.Join(home, ".shopbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Replies.Dir = ExpandPath(cfg.Replies.Dir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Webhook.Port < 1 || cfg.Webhook.Port > 65535 {
		errs = append(errs, "webhook.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		errs = append(errs, "webhook.path must start with /")
	}
	if cfg.Admin.Port < 0 || cfg.Admin.Port > 65535 {
		errs = append(errs, "admin.port must be between 0 and 65535")
	}
	if cfg.Admin.Enabled && cfg.Admin.Port == cfg.Webhook.Port {
		errs = append(errs, "admin.port must differ from webhook.port")
	}
	if cfg.Store.DBPath == "" {
		errs = append(errs, "store.dbPath is required")
	}

	switch cfg.Context.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, "context.backend must be one of: memory, redis")
	}
	if cfg.Context.Backend == "redis" && cfg.Context.RedisAddr == "" {
		errs = append(errs, "context.redisAddr is required for the redis backend")
	}
	if cfg.Context.TTLSeconds < 1 {
		errs = append(errs, "context.ttlSeconds must be >= 1")
	}

	// Validate failover chain references exist in providers.
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	if cfg.Notifications.Email.Enabled {
		if cfg.Notifications.Email.SMTPHost == "" || cfg.Notifications.Email.From == "" {
			errs = append(errs, "notifications.email requires smtpHost and from")
		}
	}
	if cfg.Notifications.SMS.Enabled && cfg.Notifications.SMS.BaseURL == "" {
		errs = append(errs, "notifications.sms.baseUrl is required when sms is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
