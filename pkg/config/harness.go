package config

import "time"

// HarnessConfig holds runtime configuration for the proxy harness.
type HarnessConfig struct {
	Environment    string
	NginxPath      string
	BaseURI        string
	BackendPath    string
	BackendAddr    string
	PublishCommand string
	ProbeBudget    time.Duration
	LogLevel       string
}

// LoadHarnessConfig constructs a HarnessConfig from environment variables.
func LoadHarnessConfig() HarnessConfig {
	return HarnessConfig{
		Environment:    GetString("APP_ENV", "development"),
		NginxPath:      GetString("NGINX_PATH", "nginx"),
		BaseURI:        GetString("HARNESS_BASE_URI", "http://127.0.0.1:8080"),
		BackendPath:    GetString("BACKEND_PATH", ""),
		BackendAddr:    GetString("BACKEND_ADDR", "http://127.0.0.1:5000"),
		PublishCommand: GetString("PUBLISH_COMMAND", ""),
		ProbeBudget:    GetDuration("PROBE_BUDGET_SECONDS", 60*time.Second),
		LogLevel:       GetString("LOG_LEVEL", "info"),
	}
}
