package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int              `yaml:"port"`
	Env          string           `yaml:"env"`
	LogLevel     string           `yaml:"logLevel"`
	LogFormat    string           `yaml:"logFormat"`
	AgentAPI     AgentAPIConfig   `yaml:"agentApi"`
	Polling      PollingConfig    `yaml:"polling"`
	History      HistoryConfig    `yaml:"history"`
	Auth         AuthConfig       `yaml:"auth"`
	Extraction   ExtractionConfig `yaml:"extraction"`
	SingleFlight bool             `yaml:"singleFlight"`
	Sessions     SessionsConfig   `yaml:"sessions"`
	RateLimit    RateLimitConfig  `yaml:"rateLimit"`
	Tracing      TracingConfig    `yaml:"tracing"`
	ReportsDir   string           `yaml:"reportsDir"`
}

type AgentAPIConfig struct {
	BaseURL            string `yaml:"baseUrl"`
	APIKey             string `yaml:"apiKey"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

type PollingConfig struct {
	IntervalSeconds    int    `yaml:"intervalSeconds"`
	MaxAttempts        int    `yaml:"maxAttempts"`
	Policy             string `yaml:"policy"`
	MaxIntervalSeconds int    `yaml:"maxIntervalSeconds"`
}

type HistoryConfig struct {
	Provider      string `yaml:"provider"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	KeyPrefix     string `yaml:"keyPrefix"`
	MaxAttempts   int    `yaml:"maxAttempts"`
	ListLimit     int    `yaml:"listLimit"`
}

// AuthConfig selects the identity provider. Config is provider specific
// and handed to the provider as JSON.
type AuthConfig struct {
	Provider string         `yaml:"provider"`
	Config   map[string]any `yaml:"config"`
}

type ExtractionConfig struct {
	// SynthesizeContacts enables placeholder emails, random confidence
	// scores and the default product match block. Nil means enabled.
	SynthesizeContacts *bool `yaml:"synthesizeContacts"`
}

func (e ExtractionConfig) Synthesize() bool {
	return e.SynthesizeContacts == nil || *e.SynthesizeContacts
}

type SessionsConfig struct {
	MaxSessions int `yaml:"maxSessions"`
}

// RateLimitConfig limits submissions per user. Zero disables it.
type RateLimitConfig struct {
	SubmitPerMinute int `yaml:"submitPerMinute"`
	Burst           int `yaml:"burst"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.finish()
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but treats an empty path or a
// missing file as an empty config, so env vars and defaults still apply.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		c := &Config{}
		c.finish()
		return c, nil
	}
	c, err := LoadConfig(filePath)
	if errors.Is(err, os.ErrNotExist) {
		c = &Config{}
		c.finish()
		return c, nil
	}
	return c, err
}

func (c *Config) finish() {
	c.applyEnv()
	c.applyDefaults()
	log.Printf("Agents Config: {Port:%d Env:%s API:%s Poll:%ds x%d History:%s Auth:%s}\n",
		c.Port, c.Env, c.AgentAPI.BaseURL, c.Polling.IntervalSeconds, c.Polling.MaxAttempts, c.History.Provider, c.Auth.Provider)
}

func (c *Config) applyEnv() {
	envInt("PORT", &c.Port)
	envString("ENV", &c.Env)
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)

	envString("AGENT_API_URL", &c.AgentAPI.BaseURL)
	envString("AGENT_API_KEY", &c.AgentAPI.APIKey)
	envInt("AGENT_API_TIMEOUT_SECONDS", &c.AgentAPI.TimeoutSeconds)
	envBool("AGENT_API_INSECURE_SKIP_VERIFY", &c.AgentAPI.InsecureSkipVerify)

	envInt("POLL_INTERVAL_SECONDS", &c.Polling.IntervalSeconds)
	envInt("POLL_MAX_ATTEMPTS", &c.Polling.MaxAttempts)
	envString("POLL_POLICY", &c.Polling.Policy)
	envInt("POLL_MAX_INTERVAL_SECONDS", &c.Polling.MaxIntervalSeconds)

	envString("HISTORY_PROVIDER", &c.History.Provider)
	envString("REDIS_ADDR", &c.History.RedisAddr)
	envString("REDIS_PASSWORD", &c.History.RedisPassword)
	envInt("REDIS_DB", &c.History.RedisDB)
	envInt("HISTORY_MAX_ATTEMPTS", &c.History.MaxAttempts)

	envString("AUTH_PROVIDER", &c.Auth.Provider)
	if v := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); v != "" {
		if c.Auth.Config == nil {
			c.Auth.Config = map[string]any{}
		}
		c.Auth.Config["secret"] = v
	}

	if v := strings.TrimSpace(os.Getenv("EXTRACTION_SYNTHESIZE_CONTACTS")); v != "" {
		b := parseBool(v)
		c.Extraction.SynthesizeContacts = &b
	}
	envBool("SINGLE_FLIGHT", &c.SingleFlight)
	envInt("MAX_SESSIONS", &c.Sessions.MaxSessions)
	envInt("RATE_LIMIT_SUBMIT_PER_MINUTE", &c.RateLimit.SubmitPerMinute)
	envInt("RATE_LIMIT_BURST", &c.RateLimit.Burst)

	envBool("TRACING_ENABLED", &c.Tracing.Enabled)
	envString("OTEL_SERVICE_NAME", &c.Tracing.ServiceName)
	envString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.OTLPEndpoint)
	if v := strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLER_ARG")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Tracing.SampleRatio = f
		}
	}

	envString("REPORTS_DIR", &c.ReportsDir)
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.AgentAPI.BaseURL == "" {
		log.Println("Warning: agentApi.baseUrl not set, using default")
		c.AgentAPI.BaseURL = "http://localhost:8000"
	}
	c.AgentAPI.BaseURL = strings.TrimRight(c.AgentAPI.BaseURL, "/")
	if c.AgentAPI.APIKey == "" {
		log.Println("Warning: agentApi.apiKey not set (dev only)")
	}
	if c.AgentAPI.TimeoutSeconds <= 0 {
		c.AgentAPI.TimeoutSeconds = 30
	}
	if c.Polling.IntervalSeconds <= 0 {
		c.Polling.IntervalSeconds = 5
	}
	if c.Polling.MaxAttempts <= 0 {
		c.Polling.MaxAttempts = 30
	}
	if c.Polling.Policy == "" {
		c.Polling.Policy = "fixed"
	}
	if c.Polling.MaxIntervalSeconds <= 0 {
		c.Polling.MaxIntervalSeconds = c.Polling.IntervalSeconds
	}
	if c.History.Provider == "" {
		c.History.Provider = "memory"
	}
	if c.History.RedisAddr == "" {
		c.History.RedisAddr = "localhost:6379"
	}
	if c.History.KeyPrefix == "" {
		c.History.KeyPrefix = "agents"
	}
	if c.History.MaxAttempts <= 0 {
		c.History.MaxAttempts = 1
	}
	if c.History.ListLimit <= 0 {
		c.History.ListLimit = 50
	}
	if c.Auth.Provider == "" && c.Env == "dev" {
		c.Auth.Provider = "static"
	}
	if c.Sessions.MaxSessions <= 0 {
		c.Sessions.MaxSessions = 1024
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "futurnod-agents"
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "/tmp/futurnod-reports"
	}
}

func (c *Config) Validate() error {
	var errs []string
	dev := strings.EqualFold(strings.TrimSpace(c.Env), "dev")

	u, err := url.Parse(c.AgentAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "agentApi.baseUrl must be a valid http(s) URL")
	}
	if strings.TrimSpace(c.AgentAPI.APIKey) == "" && !dev {
		errs = append(errs, "agentApi.apiKey is required in non-dev")
	}
	if c.AgentAPI.InsecureSkipVerify && !dev {
		errs = append(errs, "agentApi.insecureSkipVerify is only allowed in dev")
	}
	if c.Polling.IntervalSeconds <= 0 {
		errs = append(errs, "polling.intervalSeconds must be > 0")
	}
	if c.Polling.MaxAttempts <= 0 {
		errs = append(errs, "polling.maxAttempts must be > 0")
	}
	switch c.Polling.Policy {
	case "fixed", "linear", "exponential", "exp_equal_jitter", "exp_full_jitter":
	default:
		errs = append(errs, fmt.Sprintf("polling.policy %q is not supported", c.Polling.Policy))
	}
	switch c.History.Provider {
	case "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Sprintf("history.provider %q is not supported", c.History.Provider))
	}
	if c.Auth.Provider == "" && !dev {
		errs = append(errs, "auth.provider is required in non-dev")
	}
	if c.Auth.Provider == "static" && !dev {
		errs = append(errs, "auth.provider static is only allowed in dev")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "true" || v == "1" || v == "yes" || v == "y" || v == "on"
}
