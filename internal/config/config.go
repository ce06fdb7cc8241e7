// Package config provides configuration management for cutd.
// Configuration is loaded from an optional YAML file and environment
// variables (environment wins), with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutd"

	// Environment variable names
	EnvConfigFile = "CUTD_CONFIG"
	EnvPort       = "CUTD_PORT"
	EnvLogLevel   = "CUTD_LOG_LEVEL"
	EnvDataDir    = "CUTD_DATA_DIR"
	EnvDatabase   = "CUTD_DATABASE_URL"
	EnvOrigins    = "CUTD_ALLOWED_ORIGINS"

	// Language model environment variable names
	EnvLLMProvider    = "CUTD_LLM_PROVIDER"
	EnvLLMAPIKey      = "CUTD_LLM_API_KEY"
	EnvLLMModel       = "CUTD_LLM_MODEL"
	EnvLLMBaseURL     = "CUTD_LLM_BASE_URL"
	EnvLLMMaxTokens   = "CUTD_LLM_MAX_TOKENS"
	EnvLLMTemperature = "CUTD_LLM_TEMPERATURE"

	// Detection environment variable names
	EnvDetectConcurrency = "CUTD_DETECT_CONCURRENCY"
	EnvChunkSeconds      = "CUTD_CHUNK_SECONDS"
	EnvAnalysisCost      = "CUTD_ANALYSIS_COST"

	// Collaborator environment variable names
	EnvRedisAddr         = "CUTD_REDIS_ADDR"
	EnvRedisChannel      = "CUTD_REDIS_CHANNEL"
	EnvMQTTBroker        = "CUTD_MQTT_BROKER"
	EnvMQTTTopic         = "CUTD_MQTT_TOPIC"
	EnvCassandraHosts    = "CUTD_CASSANDRA_HOSTS"
	EnvCassandraKeyspace = "CUTD_CASSANDRA_KEYSPACE"

	// Database filename
	DBFilename = "cutd.db"

	// Detection defaults
	DefaultLLMProvider       = "openrouter"
	DefaultLLMMaxTokens      = 4096
	DefaultLLMTemperature    = 0.2
	DefaultDetectConcurrency = 4
	DefaultChunkSeconds      = 180
	DefaultAnalysisCost      = 1
	DefaultLLMTimeout        = 90 // seconds

	DefaultRedisChannel      = "cutd:cuts"
	DefaultMQTTTopic         = "cutd/videos"
	DefaultCassandraKeyspace = "cutd"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DatabaseURL() string
	AllowedOrigins() []string
	LLMProvider() string
	LLMAPIKey() string
	LLMModel() string
	LLMBaseURL() string
	LLMMaxTokens() int
	LLMTemperature() float64
	LLMTimeout() time.Duration
	DetectConcurrency() int
	ChunkSeconds() float64
	AnalysisCost() int
	PromptOverrides() map[string]string
	RedisAddr() string
	RedisChannel() string
	MQTTBroker() string
	MQTTTopic() string
	CassandraHosts() []string
	CassandraKeyspace() string
}

// FileConfig is the YAML shape of the optional config file. Every key
// mirrors one environment variable; prompts holds per-category prompt
// overrides keyed by category name.
type FileConfig struct {
	Port           int      `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	DataDir        string   `yaml:"data_dir"`
	DatabaseURL    string   `yaml:"database_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	LLM struct {
		Provider    string   `yaml:"provider"`
		APIKey      string   `yaml:"api_key"`
		Model       string   `yaml:"model"`
		BaseURL     string   `yaml:"base_url"`
		MaxTokens   int      `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Detect struct {
		Concurrency  int     `yaml:"concurrency"`
		ChunkSeconds float64 `yaml:"chunk_seconds"`
		AnalysisCost *int    `yaml:"analysis_cost"`
	} `yaml:"detect"`

	Prompts map[string]string `yaml:"prompts"`

	Redis struct {
		Addr    string `yaml:"addr"`
		Channel string `yaml:"channel"`
	} `yaml:"redis"`

	MQTT struct {
		Broker string `yaml:"broker"`
		Topic  string `yaml:"topic"`
	} `yaml:"mqtt"`

	Cassandra struct {
		Hosts    []string `yaml:"hosts"`
		Keyspace string   `yaml:"keyspace"`
	} `yaml:"cassandra"`
}

// EnvConfig reads configuration from environment variables layered over
// an optional YAML file.
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	databaseURL    string
	allowedOrigins []string

	llmProvider    string
	llmAPIKey      string
	llmModel       string
	llmBaseURL     string
	llmMaxTokens   int
	llmTemperature float64

	detectConcurrency int
	chunkSeconds      float64
	analysisCost      int
	prompts           map[string]string

	redisAddr         string
	redisChannel      string
	mqttBroker        string
	mqttTopic         string
	cassandraHosts    []string
	cassandraKeyspace string
}

// New creates a new EnvConfig. It loads .env (best-effort), then the YAML
// file named by path or CUTD_CONFIG when either is set, then applies
// environment variable overrides.
func New(path string) (*EnvConfig, error) {
	_ = godotenv.Load() // best-effort: load .env if present

	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		allowedOrigins:    []string{"http://localhost:5173"},
		llmProvider:       DefaultLLMProvider,
		llmMaxTokens:      DefaultLLMMaxTokens,
		llmTemperature:    DefaultLLMTemperature,
		detectConcurrency: DefaultDetectConcurrency,
		chunkSeconds:      DefaultChunkSeconds,
		analysisCost:      DefaultAnalysisCost,
		prompts:           map[string]string{},
		redisChannel:      DefaultRedisChannel,
		mqttTopic:         DefaultMQTTTopic,
		cassandraKeyspace: DefaultCassandraKeyspace,
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applyFile(fc)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file. Environment references inside the
// file (${VAR}) are expanded before parsing.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (c *EnvConfig) applyFile(fc *FileConfig) {
	if fc.Port != 0 {
		c.port = fc.Port
	}
	setString(&c.logLevel, fc.LogLevel)
	setString(&c.dataDir, fc.DataDir)
	setString(&c.databaseURL, fc.DatabaseURL)
	if len(fc.AllowedOrigins) > 0 {
		c.allowedOrigins = fc.AllowedOrigins
	}

	setString(&c.llmProvider, fc.LLM.Provider)
	setString(&c.llmAPIKey, fc.LLM.APIKey)
	setString(&c.llmModel, fc.LLM.Model)
	setString(&c.llmBaseURL, fc.LLM.BaseURL)
	if fc.LLM.MaxTokens > 0 {
		c.llmMaxTokens = fc.LLM.MaxTokens
	}
	if fc.LLM.Temperature != nil {
		c.llmTemperature = *fc.LLM.Temperature
	}

	if fc.Detect.Concurrency > 0 {
		c.detectConcurrency = fc.Detect.Concurrency
	}
	if fc.Detect.ChunkSeconds > 0 {
		c.chunkSeconds = fc.Detect.ChunkSeconds
	}
	if fc.Detect.AnalysisCost != nil {
		c.analysisCost = *fc.Detect.AnalysisCost
	}
	for k, v := range fc.Prompts {
		c.prompts[k] = v
	}

	setString(&c.redisAddr, fc.Redis.Addr)
	setString(&c.redisChannel, fc.Redis.Channel)
	setString(&c.mqttBroker, fc.MQTT.Broker)
	setString(&c.mqttTopic, fc.MQTT.Topic)
	if len(fc.Cassandra.Hosts) > 0 {
		c.cassandraHosts = fc.Cassandra.Hosts
	}
	setString(&c.cassandraKeyspace, fc.Cassandra.Keyspace)
}

func (c *EnvConfig) applyEnv() error {
	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
	}

	setString(&c.logLevel, os.Getenv(EnvLogLevel))
	setString(&c.dataDir, os.Getenv(EnvDataDir))
	setString(&c.databaseURL, os.Getenv(EnvDatabase))
	if o := os.Getenv(EnvOrigins); o != "" {
		c.allowedOrigins = splitList(o)
	}

	setString(&c.llmProvider, os.Getenv(EnvLLMProvider))
	setString(&c.llmAPIKey, os.Getenv(EnvLLMAPIKey))
	setString(&c.llmModel, os.Getenv(EnvLLMModel))
	setString(&c.llmBaseURL, os.Getenv(EnvLLMBaseURL))

	if v := os.Getenv(EnvLLMMaxTokens); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: must be a positive integer", EnvLLMMaxTokens)
		}
		c.llmMaxTokens = n
	}
	if v := os.Getenv(EnvLLMTemperature); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid %s: must be a number between 0 and 2", EnvLLMTemperature)
		}
		c.llmTemperature = f
	}
	if v := os.Getenv(EnvDetectConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: must be a positive integer", EnvDetectConcurrency)
		}
		c.detectConcurrency = n
	}
	if v := os.Getenv(EnvChunkSeconds); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid %s: must be a positive number", EnvChunkSeconds)
		}
		c.chunkSeconds = f
	}
	if v := os.Getenv(EnvAnalysisCost); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: must be a non-negative integer", EnvAnalysisCost)
		}
		c.analysisCost = n
	}

	setString(&c.redisAddr, os.Getenv(EnvRedisAddr))
	setString(&c.redisChannel, os.Getenv(EnvRedisChannel))
	setString(&c.mqttBroker, os.Getenv(EnvMQTTBroker))
	setString(&c.mqttTopic, os.Getenv(EnvMQTTTopic))
	if h := os.Getenv(EnvCassandraHosts); h != "" {
		c.cassandraHosts = splitList(h)
	}
	setString(&c.cassandraKeyspace, os.Getenv(EnvCassandraKeyspace))
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DatabaseURL returns the configured database URL, or the path of the
// SQLite file inside the data directory when none is configured.
func (c *EnvConfig) DatabaseURL() string {
	if c.databaseURL != "" {
		return c.databaseURL
	}
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *EnvConfig) LLMProvider() string {
	return strings.ToLower(c.llmProvider)
}

func (c *EnvConfig) LLMAPIKey() string {
	return c.llmAPIKey
}

func (c *EnvConfig) LLMModel() string {
	return c.llmModel
}

func (c *EnvConfig) LLMBaseURL() string {
	return c.llmBaseURL
}

func (c *EnvConfig) LLMMaxTokens() int {
	return c.llmMaxTokens
}

func (c *EnvConfig) LLMTemperature() float64 {
	return c.llmTemperature
}

func (c *EnvConfig) LLMTimeout() time.Duration {
	return time.Duration(DefaultLLMTimeout) * time.Second
}

// DetectConcurrency bounds the number of in-flight model calls per category.
func (c *EnvConfig) DetectConcurrency() int {
	return c.detectConcurrency
}

// ChunkSeconds is the target transcript chunk span.
func (c *EnvConfig) ChunkSeconds() float64 {
	return c.chunkSeconds
}

// AnalysisCost is the number of credits one detection run debits.
func (c *EnvConfig) AnalysisCost() int {
	return c.analysisCost
}

func (c *EnvConfig) PromptOverrides() map[string]string {
	return c.prompts
}

func (c *EnvConfig) RedisAddr() string {
	return c.redisAddr
}

func (c *EnvConfig) RedisChannel() string {
	return c.redisChannel
}

func (c *EnvConfig) MQTTBroker() string {
	return c.mqttBroker
}

func (c *EnvConfig) MQTTTopic() string {
	return c.mqttTopic
}

func (c *EnvConfig) CassandraHosts() []string {
	return c.cassandraHosts
}

func (c *EnvConfig) CassandraKeyspace() string {
	return c.cassandraKeyspace
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
