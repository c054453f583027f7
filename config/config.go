package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the validator node.
// It is constructed once at startup and passed by reference into every
// component; nothing mutates it afterwards.
type Config struct {
	Redis      RedisConfig      `yaml:"redis"`
	Services   ServicesConfig   `yaml:"services"`
	Validating ValidatingConfig `yaml:"validating"`
	Weights    WeightsConfig    `yaml:"weights"`
	Signer     SignerConfig     `yaml:"signer"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Diag       DiagConfig       `yaml:"diag"`
}

// RedisConfig holds the ledger store connection settings.
type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	FlushOnStart bool   `yaml:"flush_on_start"`
}

// ServicesConfig holds base URLs of the external collaborators.
type ServicesConfig struct {
	AdmissionURL   string   `yaml:"admission_url"`
	SynthesizerURL string   `yaml:"synthesizer_url"`
	ResolverURL    string   `yaml:"resolver_url"`
	OracleURL      string   `yaml:"oracle_url"`
	SinkURL        string   `yaml:"sink_url"`
	WeightsURL     string   `yaml:"weights_url"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// ValidatingConfig holds the forward-cycle pipeline settings.
type ValidatingConfig struct {
	BatchSize              int      `yaml:"batch_size"`
	TopFraction            float64  `yaml:"top_fraction"`
	AcceptableConsumedRate float64  `yaml:"acceptable_consumed_rate"`
	ForwardInterval        Duration `yaml:"forward_interval"`
	ConcurrentForward      int      `yaml:"concurrent_forward"`
	QueueSize              int      `yaml:"queue_size"`
	MaxConcurrentScoring   int      `yaml:"max_concurrent_scoring"`
	AdmissionTimeout       Duration `yaml:"admission_timeout"`
	TaskTimeout            Duration `yaml:"task_timeout"`
	DispatchTimeout        Duration `yaml:"dispatch_timeout"`
	ScoringTimeout         Duration `yaml:"scoring_timeout"`
	MaxCompressRate        float64  `yaml:"max_compress_rate"`
	MaxScoringCount        int      `yaml:"max_scoring_count"`
	ScoringInterval        Duration `yaml:"scoring_interval"`
}

// WeightsConfig holds the periodic weight-submission settings.
type WeightsConfig struct {
	Interval  Duration `yaml:"interval"`
	NetworkID int      `yaml:"network_id"`
	Version   int      `yaml:"version"`
}

// SignerConfig holds the request-signing key location.
type SignerConfig struct {
	KeyFile string `yaml:"key_file"`
}

// MetricsConfig holds metrics server configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DiagConfig holds the diagnostics API configuration.
type DiagConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		c.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		fmt.Sscanf(redisPort, "%d", &c.Redis.Port)
	}
	if redisPass := os.Getenv("REDIS_PASSWORD"); redisPass != "" {
		c.Redis.Password = redisPass
	}

	if url := os.Getenv("ADMISSION_URL"); url != "" {
		c.Services.AdmissionURL = url
	}
	if url := os.Getenv("SYNTHESIZER_URL"); url != "" {
		c.Services.SynthesizerURL = url
	}
	if url := os.Getenv("RESOLVER_URL"); url != "" {
		c.Services.ResolverURL = url
	}
	if url := os.Getenv("ORACLE_URL"); url != "" {
		c.Services.OracleURL = url
	}
	if url := os.Getenv("SINK_URL"); url != "" {
		c.Services.SinkURL = url
	}
	if url := os.Getenv("WEIGHTS_URL"); url != "" {
		c.Services.WeightsURL = url
	}

	if keyFile := os.Getenv("SIGNER_KEY_FILE"); keyFile != "" {
		c.Signer.KeyFile = keyFile
	}
}

// Validate checks required settings and fills defaults.
func (c *Config) Validate() error {
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}

	required := map[string]string{
		"admission URL":   c.Services.AdmissionURL,
		"synthesizer URL": c.Services.SynthesizerURL,
		"resolver URL":    c.Services.ResolverURL,
		"oracle URL":      c.Services.OracleURL,
		"weights URL":     c.Services.WeightsURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Services.RequestTimeout <= 0 {
		c.Services.RequestTimeout = Duration(12 * time.Second)
	}

	v := &c.Validating
	if v.BatchSize <= 0 {
		v.BatchSize = 10
	}
	if v.TopFraction <= 0 || v.TopFraction > 1 {
		v.TopFraction = 1.0
	}
	if v.AcceptableConsumedRate <= 0 {
		v.AcceptableConsumedRate = 0.5
	}
	if v.ForwardInterval <= 0 {
		v.ForwardInterval = Duration(4 * time.Second)
	}
	if v.ConcurrentForward <= 0 {
		v.ConcurrentForward = 2
	}
	if v.QueueSize <= 0 {
		v.QueueSize = v.ConcurrentForward
	}
	if v.MaxConcurrentScoring <= 0 {
		v.MaxConcurrentScoring = 1
	}
	if v.MaxConcurrentScoring > v.ConcurrentForward {
		return fmt.Errorf("max_concurrent_scoring must not exceed concurrent_forward")
	}
	if v.AdmissionTimeout <= 0 {
		v.AdmissionTimeout = Duration(12 * time.Second)
	}
	if v.TaskTimeout <= 0 {
		v.TaskTimeout = Duration(12 * time.Second)
	}
	if v.DispatchTimeout <= 0 {
		v.DispatchTimeout = Duration(12 * time.Second)
	}
	if v.ScoringTimeout <= 0 {
		// The oracle call is by far the slowest external dependency.
		v.ScoringTimeout = Duration(360 * time.Second)
	}
	if v.MaxCompressRate <= 0 {
		v.MaxCompressRate = 0.8
	}
	if v.MaxScoringCount <= 0 {
		return fmt.Errorf("max_scoring_count is required")
	}
	if v.ScoringInterval <= 0 {
		return fmt.Errorf("scoring_interval is required")
	}

	if c.Weights.Interval <= 0 {
		c.Weights.Interval = Duration(60 * time.Second)
	}

	if c.Metrics.Enabled && c.Metrics.Port == 0 {
		return fmt.Errorf("metrics port is required when metrics are enabled")
	}
	if c.Diag.Enabled && c.Diag.Port == 0 {
		return fmt.Errorf("diag port is required when diagnostics are enabled")
	}

	return nil
}

// GetRedisAddr returns the Redis connection address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
