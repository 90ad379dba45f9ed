package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Captions CaptionsConfig `mapstructure:"captions"`
	Search   SearchConfig   `mapstructure:"search"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Port     int        `mapstructure:"port"`
	Mode     string     `mapstructure:"mode"`
	AdminKey string     `mapstructure:"admin_key"`
	CORS     CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`   // sqlite file
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

// StorageConfig describes the S3-compatible bucket holding meme images.
// Type is one of s3, r2, s3compatible, memory; empty auto-detects from Endpoint.
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type UploadConfig struct {
	APIKey       string   `mapstructure:"api_key"`
	MaxSizeBytes int64    `mapstructure:"max_size_bytes"`
	Formats      []string `mapstructure:"formats"`
}

type CaptionsConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	DefaultLimit  int               `mapstructure:"default_limit"`
	TrendingLimit int               `mapstructure:"trending_limit"`
	VectorIndex   VectorIndexConfig `mapstructure:"vector_index"`
}

// VectorIndexConfig enables semantic title search through Qdrant.
type VectorIndexConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	Collection     string  `mapstructure:"collection"`
	APIKey         string  `mapstructure:"api_key"`
	UseTLS         bool    `mapstructure:"use_tls"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	EmbeddingKey   string  `mapstructure:"embedding_api_key"`
	EmbeddingURL   string  `mapstructure:"embedding_url"`
	Dimensions     int     `mapstructure:"dimensions"`
	ScoreThreshold float32 `mapstructure:"score_threshold"`
}

type IngestConfig struct {
	Workers   int `mapstructure:"workers"`
	BatchSize int `mapstructure:"batch_size"`
}

type SourcesConfig struct {
	StagingPath string `mapstructure:"staging_path"`
	FolderPath  string `mapstructure:"folder_path"`
}

// ClientConfig configures the terminal client and its local state.
type ClientConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	UploadURL      string        `mapstructure:"upload_url"`
	UploadAPIKey   string        `mapstructure:"upload_api_key"`
	StatePath      string        `mapstructure:"state_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
}

// Load reads configuration from configPath (or ./configs/config.yaml, ./config.yaml),
// then environment variables. A missing config file is not an error.
// Parameters:
//   - configPath: explicit config file, empty to search the default locations.
//
// Returns:
//   - *Config: merged configuration.
//   - error: non-nil if the file exists but cannot be parsed.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets get conventional names on top of the automatic SECTION_KEY mapping.
	v.BindEnv("database.password", "DATABASE_PASSWORD", "PGPASSWORD")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("server.admin_key", "ADMIN_API_KEY")
	v.BindEnv("upload.api_key", "UPLOAD_API_KEY")
	v.BindEnv("captions.api_key", "OPENAI_API_KEY")
	v.BindEnv("captions.base_url", "OPENAI_BASE_URL")
	v.BindEnv("search.vector_index.api_key", "QDRANT_API_KEY")
	v.BindEnv("search.vector_index.embedding_api_key", "JINA_API_KEY")
	v.BindEnv("client.api_base_url", "MEMEVERSE_API_URL")
	v.BindEnv("client.upload_api_key", "MEMEVERSE_UPLOAD_KEY", "UPLOAD_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/memeverse.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "memes")
	v.SetDefault("storage.public_url", "http://localhost:8080/files")

	v.SetDefault("upload.max_size_bytes", 5*1024*1024)
	v.SetDefault("upload.formats", []string{"jpeg", "jpg", "png", "gif"})

	v.SetDefault("captions.enabled", false)
	v.SetDefault("captions.model", "gpt-4o-mini")
	v.SetDefault("captions.base_url", "https://api.openai.com/v1")
	v.SetDefault("captions.timeout", 30*time.Second)

	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.trending_limit", 12)
	v.SetDefault("search.vector_index.enabled", false)
	v.SetDefault("search.vector_index.host", "localhost")
	v.SetDefault("search.vector_index.port", 6334)
	v.SetDefault("search.vector_index.collection", "meme_titles")
	v.SetDefault("search.vector_index.embedding_model", "jina-embeddings-v3")
	v.SetDefault("search.vector_index.embedding_url", "https://api.jina.ai/v1/embeddings")
	v.SetDefault("search.vector_index.dimensions", 1024)

	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.batch_size", 20)

	v.SetDefault("sources.staging_path", "./data/staging")
	v.SetDefault("sources.folder_path", "./data/memes")

	v.SetDefault("client.api_base_url", "http://localhost:8080/api/v1")
	v.SetDefault("client.upload_url", "http://localhost:8080/api/v1/upload")
	v.SetDefault("client.state_path", "./data/client-state.db")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.search_debounce", 300*time.Millisecond)
}
