package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:      "info",
			FailoverChain: []string{"openai", "gemini"},
		},
		Webhook: WebhookConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Path: "/webhook",
		},
		Admin: AdminConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8081,
		},
		Store: StoreConfig{
			DBPath: "~/.shopbot/shopbot.db",
			Seed:   true,
		},
		Context: ContextConfig{
			Backend:    "memory",
			TTLSeconds: 1800,
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				Enabled:      true,
				APIBase:      "https://api.openai.com/v1",
				APIKey:       "${OPENAI_API_KEY}",
				DefaultModel: "gpt-4o-mini",
			},
			"gemini": {
				Enabled:      true,
				APIBase:      "https://generativelanguage.googleapis.com/v1beta",
				APIKey:       "${GEMINI_API_KEY}",
				DefaultModel: "gemini-2.0-flash",
			},
		},
		Notifications: NotificationsConfig{
			Enabled: false,
			Email: EmailConfig{
				SMTPHost: "smtp.gmail.com",
				SMTPPort: 587,
			},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "shopbot",
		},
	}
}
