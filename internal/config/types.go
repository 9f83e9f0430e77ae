package config

// Config is the root configuration structure for codeguardian.
// Serialised to ~/.codeguardian/config.json.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	AI       AIConfig       `mapstructure:"ai"       json:"ai"`
	Git      GitConfig      `mapstructure:"git"      json:"git"`
	Scanner  ScannerConfig  `mapstructure:"scanner"  json:"scanner"`
	Gateway  GatewayConfig  `mapstructure:"gateway"  json:"gateway"`
	Notify   NotifyConfig   `mapstructure:"notify"   json:"notify"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// AIConfig controls the model provider used for file analysis.
type AIConfig struct {
	// Provider is "bedrock" (default) or "anthropic".
	Provider string `mapstructure:"provider" json:"provider"`
	// Model overrides the provider's default model identifier.
	Model string `mapstructure:"model" json:"model"`
	// Region is the AWS region for the Bedrock runtime.
	Region string `mapstructure:"region" json:"region"`
	// AnthropicKey authenticates the direct Anthropic REST provider.
	AnthropicKey string `mapstructure:"anthropic_api_key" json:"anthropic_api_key"`
	// MaxTokens bounds the model's output per file analysis.
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens"`
	// Temperature is the sampling temperature. Kept low so repeated analysis
	// of the same file stays close to deterministic.
	Temperature float64 `mapstructure:"temperature" json:"temperature"`
}

// GitConfig holds service-level credentials for source hosts. Per-user tokens
// stored with the user record take precedence; these are fallbacks for
// webhook- and schedule-triggered scans of public repositories.
type GitConfig struct {
	GitHubToken   string `mapstructure:"github_token"   json:"github_token"`
	GitLabToken   string `mapstructure:"gitlab_token"   json:"gitlab_token"`
	GitLabHost    string `mapstructure:"gitlab_host"    json:"gitlab_host"`
	WebhookSecret string `mapstructure:"webhook_secret" json:"webhook_secret"`
}

// ScannerConfig controls the scan pipeline.
type ScannerConfig struct {
	// MaxConcurrentScans caps how many scan pipelines run at once.
	MaxConcurrentScans int `mapstructure:"max_concurrent_scans" json:"max_concurrent_scans"`
	// BatchSize is the number of files analysed concurrently per batch.
	BatchSize int `mapstructure:"batch_size" json:"batch_size"`
	// BatchPauseMs is the pacing delay between batches, in milliseconds.
	BatchPauseMs int `mapstructure:"batch_pause_ms" json:"batch_pause_ms"`
	// ScanTimeoutMin aborts a pipeline that runs longer than this many minutes.
	ScanTimeoutMin int `mapstructure:"scan_timeout_min" json:"scan_timeout_min"`
	// PolicyPath points at a scan policy file overriding the bundled default.
	PolicyPath string `mapstructure:"policy_path" json:"policy_path"`
	// RescanIntervalHours controls how stale a repository's last scan must be
	// before the cron sweep triggers a SCHEDULED scan. 0 disables the sweep.
	RescanIntervalHours int `mapstructure:"rescan_interval_hours" json:"rescan_interval_hours"`
	// RescanCron is the cron expression for the scheduled sweep.
	RescanCron string `mapstructure:"rescan_cron" json:"rescan_cron"`
}

// GatewayConfig controls the HTTP gateway daemon.
type GatewayConfig struct {
	// Port is the HTTP port the gateway listens on (default: 8080).
	Port int `mapstructure:"port" json:"port"`
}

// NotifyConfig controls critical-finding alert channels.
type NotifyConfig struct {
	Email   EmailNotifyConfig   `mapstructure:"email"   json:"email"`
	Slack   SlackNotifyConfig   `mapstructure:"slack"   json:"slack"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook" json:"webhook"`
}

// EmailNotifyConfig configures SMTP delivery of vulnerability alerts.
type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

// SlackNotifyConfig configures a Slack incoming webhook.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig configures a generic JSON webhook. Secret enables
// HMAC-SHA256 request signing.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}
