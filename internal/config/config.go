package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Places        PlacesConfig        `yaml:"places"`
	Geocoder      GeocoderConfig      `yaml:"geocoder"`
	Taxonomy      TaxonomyConfig      `yaml:"taxonomy"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Redis         RedisConfig         `yaml:"redis"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Firestore     FirestoreConfig     `yaml:"firestore"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PlacesConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

type GeocoderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CacheEntries   int64         `yaml:"cache_entries"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

type TaxonomyConfig struct {
	Path    string `yaml:"path"`
	Workers int    `yaml:"workers"`
}

type ClassifierConfig struct {
	ModelPath      string `yaml:"model_path"`
	DictionaryPath string `yaml:"dictionary_path"`
}

type RedisConfig struct {
	Addresses    []string       `yaml:"addresses"`
	Password     string         `yaml:"password"`
	DB           int            `yaml:"db"`
	PoolSize     int            `yaml:"pool_size"`
	MinIdleConns int            `yaml:"min_idle_conns"`
	DialTimeout  time.Duration  `yaml:"dial_timeout"`
	ReadTimeout  time.Duration  `yaml:"read_timeout"`
	WriteTimeout time.Duration  `yaml:"write_timeout"`
	TTL          CacheTTLConfig `yaml:"ttl"`
}

type CacheTTLConfig struct {
	Autocomplete  time.Duration `yaml:"autocomplete"`
	TurnResults   time.Duration `yaml:"turn_results"`
	PlaceDetails  time.Duration `yaml:"place_details"`
	Geocode       time.Duration `yaml:"geocode"`
	StaleFallback time.Duration `yaml:"stale_fallback"`
}

type ClickHouseConfig struct {
	Addresses    []string      `yaml:"addresses"`
	Database     string        `yaml:"database"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

type FirestoreConfig struct {
	ProjectID       string        `yaml:"project_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxBatchSize    int           `yaml:"max_batch_size"`
}

type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	TopicEvents   string        `yaml:"topic_events"`
	TopicErrors   string        `yaml:"topic_errors"`
	TopicDLQ      string        `yaml:"topic_dlq"`
	ConsumerGroup string        `yaml:"consumer_group"`
	BatchSize     int           `yaml:"batch_size"`
	BatchTimeout  time.Duration `yaml:"batch_timeout"`
	MaxRetries    int           `yaml:"max_retries"`
}

type PipelineConfig struct {
	DefaultLimit        int                  `yaml:"default_limit"`
	MaxLimit            int                  `yaml:"max_limit"`
	SearchRadius        int                  `yaml:"search_radius"`
	RecommendRadius     int                  `yaml:"recommend_radius"`
	TurnTimeout         time.Duration        `yaml:"turn_timeout"`
	SectionCacheEntries int64                `yaml:"section_cache_entries"`
	CircuitBreaker      CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry               RetryConfig          `yaml:"retry"`
	SlowTurn            SlowTurnConfig       `yaml:"slow_turn"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

type SlowTurnConfig struct {
	WarningThreshold  time.Duration `yaml:"warning_threshold"`
	CriticalThreshold time.Duration `yaml:"critical_threshold"`
}

type ObservabilityConfig struct {
	MetricsPort     int     `yaml:"metrics_port"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
	LogLevel        string  `yaml:"log_level"`
	ServiceName     string  `yaml:"service_name"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Places: PlacesConfig{
			BaseURL:        "https://api.foursquare.com/v3",
			RequestTimeout: 2 * time.Second,
			MaxRetries:     3,
		},
		Geocoder: GeocoderConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			RequestTimeout: 2 * time.Second,
			CacheEntries:   10000,
			CacheTTL:       24 * time.Hour,
		},
		Taxonomy: TaxonomyConfig{
			Path:    "resources/categories.json",
			Workers: 8,
		},
		Classifier: ClassifierConfig{
			ModelPath:      "resources/sections.json",
			DictionaryPath: "resources/dictionary.txt",
		},
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			PoolSize:     100,
			MinIdleConns: 10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  1 * time.Second,
			WriteTimeout: 1 * time.Second,
			TTL: CacheTTLConfig{
				Autocomplete:  10 * time.Minute,
				TurnResults:   2 * time.Minute,
				PlaceDetails:  30 * time.Minute,
				Geocode:       24 * time.Hour,
				StaleFallback: 1 * time.Hour,
			},
		},
		ClickHouse: ClickHouseConfig{
			Addresses:    []string{"localhost:9000"},
			Database:     "placeflow_analytics",
			DialTimeout:  5 * time.Second,
			QueryTimeout: 2 * time.Second,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Firestore: FirestoreConfig{
			RequestTimeout: 2 * time.Second,
			MaxBatchSize:   100,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			TopicEvents:   "placeflow.events",
			TopicErrors:   "placeflow.errors",
			TopicDLQ:      "placeflow.events.dlq",
			ConsumerGroup: "placeflow-analytics",
			BatchSize:     1000,
			BatchTimeout:  1 * time.Second,
			MaxRetries:    3,
		},
		Pipeline: PipelineConfig{
			DefaultLimit:        50,
			MaxLimit:            100,
			SearchRadius:        50000,
			RecommendRadius:     20000,
			TurnTimeout:         5 * time.Second,
			SectionCacheEntries: 10000,
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:      100,
				Interval:         30 * time.Second,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
			Retry: RetryConfig{
				MaxAttempts: 2,
				InitialWait: 50 * time.Millisecond,
				MaxWait:     500 * time.Millisecond,
				Multiplier:  2.0,
			},
			SlowTurn: SlowTurnConfig{
				WarningThreshold:  200 * time.Millisecond,
				CriticalThreshold: 500 * time.Millisecond,
			},
		},
		Observability: ObservabilityConfig{
			MetricsPort:     9090,
			TraceSampleRate: 0.1,
			LogLevel:        "info",
			ServiceName:     "placeflow",
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Places.BaseURL == "" {
		return fmt.Errorf("places base url required")
	}
	if c.Geocoder.BaseURL == "" {
		return fmt.Errorf("geocoder base url required")
	}
	if c.Taxonomy.Path == "" {
		return fmt.Errorf("taxonomy path required")
	}
	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("at least one redis address required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("at least one kafka broker required")
	}
	if c.Pipeline.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive")
	}
	if c.Pipeline.MaxLimit <= 0 || c.Pipeline.MaxLimit > 1000 {
		return fmt.Errorf("max limit must be between 1 and 1000")
	}
	return nil
}
