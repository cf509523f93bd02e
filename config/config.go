package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Worker     WorkerConfig     `yaml:"worker"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Tasks      TasksConfig      `yaml:"tasks"`
}

// WorkerPoolConfig holds the configuration for the dispatch worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys and delivery defaults for web push.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
	// TargetURL is the page a notification click lands on when the payload
	// does not carry its own deep link.
	TargetURL string `yaml:"target_url"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// WorkerConfig describes the service worker's offline cache: the versioned
// bucket name, the URLs preloaded on install, and the path prefixes the
// worker is allowed to intercept.
type WorkerConfig struct {
	CacheVersion   string   `yaml:"cache_version"`
	CacheManifest  []string `yaml:"cache_manifest"`
	TaskViewPrefix string   `yaml:"task_view_prefix"`
	IconPrefix     string   `yaml:"icon_prefix"`
}

// TasksConfig holds the configuration for the task-feed watcher.
type TasksConfig struct {
	Enabled         bool              `yaml:"enabled"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	FeedURL         string            `yaml:"feed_url"`
	Headers         map[string]string `yaml:"headers"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.TargetURL == "" {
		cfg.Push.TargetURL = "/tasks/"
	}

	if cfg.Worker.CacheVersion == "" {
		cfg.Worker.CacheVersion = "v1"
	}
	if cfg.Worker.TaskViewPrefix == "" {
		cfg.Worker.TaskViewPrefix = "/tasks/"
	}
	if cfg.Worker.IconPrefix == "" {
		cfg.Worker.IconPrefix = "/icons/"
	}
	if len(cfg.Worker.CacheManifest) == 0 {
		cfg.Worker.CacheManifest = []string{
			"/tasks/",
			"/manifest.webmanifest",
			"/icons/icon-192.png",
			"/icons/icon-512.png",
		}
	}

	if cfg.Tasks.IntervalSeconds <= 0 {
		cfg.Tasks.IntervalSeconds = 30
	}
	cfg.Tasks.Interval = time.Duration(cfg.Tasks.IntervalSeconds) * time.Second

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
