package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	redisclient "github.com/yungbote/barista-backend/internal/clients/redis"
	"github.com/yungbote/barista-backend/internal/data/db"
	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/envutil"
	"github.com/yungbote/barista-backend/internal/platform/logger"
	"github.com/yungbote/barista-backend/internal/platform/openai"
	"github.com/yungbote/barista-backend/internal/platform/qdrant"
)

const (
	NLUProviderOpenAI    = "openai"
	NLUProviderLangChain = "langchain"

	VectorProviderMemory = "memory"
	VectorProviderQdrant = "qdrant"
)

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type NLUConfig struct {
	Provider    string  `yaml:"provider"`
	Temperature float64 `yaml:"temperature"`
}

type VectorConfig struct {
	Provider string        `yaml:"provider"`
	Qdrant   qdrant.Config `yaml:"qdrant"`
	// IndexOnStart embeds the catalog into the vector store at startup.
	IndexOnStart bool `yaml:"index_on_start"`
}

type OrderingConfig struct {
	Limits        types.Limits  `yaml:"limits"`
	RAGLimit      int           `yaml:"rag_limit"`
	HistoryWindow int           `yaml:"history_window"`
	CatalogTTL    time.Duration `yaml:"catalog_ttl"`
}

type MenuConfig struct {
	SeedOnStart bool `yaml:"seed_on_start"`
	// SeedFile replaces the embedded default menu when set.
	SeedFile string `yaml:"seed_file"`
}

type Config struct {
	LogMode  string                   `yaml:"log_mode"`
	HTTP     HTTPConfig               `yaml:"http"`
	DB       db.Config                `yaml:"db"`
	Redis    redisclient.Config       `yaml:"redis"`
	OpenAI   openai.Config            `yaml:"openai"`
	NLU      NLUConfig                `yaml:"nlu"`
	Vector   VectorConfig             `yaml:"vector"`
	Ordering OrderingConfig           `yaml:"ordering"`
	Menu     MenuConfig               `yaml:"menu"`
	Otel     observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode: "development",
		HTTP:    HTTPConfig{Addr: ":8080", MetricsAddr: ":9090"},
		DB: db.Config{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "barista",
			SSLMode: "disable",
		},
		Redis:  redisclient.Config{KeyPrefix: "barista:turn", TTL: 30 * time.Minute},
		NLU:    NLUConfig{Provider: NLUProviderOpenAI, Temperature: 0.2},
		Vector: VectorConfig{Provider: VectorProviderMemory, IndexOnStart: true},
		Ordering: OrderingConfig{
			Limits:        types.DefaultLimits(),
			RAGLimit:      5,
			HistoryWindow: 10,
			CatalogTTL:    5 * time.Minute,
		},
		Menu: MenuConfig{SeedOnStart: true},
		Otel: observability.OtelConfig{ServiceName: "barista-backend", SampleRatio: 1},
	}
}

// LoadConfig layers defaults, then the YAML file named by CONFIG_FILE, then the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Config file loaded", "path", path)
	}

	applyEnv(&cfg)
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}

	log.Info("Config loaded",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.HTTP.MetricsAddr,
		"db_driver", cfg.DB.Driver,
		"redis_enabled", cfg.Redis.Addr != "",
		"nlu_provider", cfg.NLU.Provider,
		"openai_model", cfg.OpenAI.Model,
		"vector_provider", cfg.Vector.Provider,
		"rag_limit", cfg.Ordering.RAGLimit,
		"history_window", cfg.Ordering.HistoryWindow,
		"otel_enabled", cfg.Otel.Enabled,
	)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.MetricsAddr = envutil.String("METRICS_ADDR", cfg.HTTP.MetricsAddr)
	if origins := envutil.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.HTTP.AllowedOrigins = splitList(origins)
	}

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = envutil.Duration("TURN_CACHE_TTL", cfg.Redis.TTL)

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.EmbedModel = envutil.String("OPENAI_EMBED_MODEL", cfg.OpenAI.EmbedModel)
	cfg.OpenAI.Timeout = envutil.Duration("OPENAI_TIMEOUT", cfg.OpenAI.Timeout)
	cfg.OpenAI.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", cfg.OpenAI.MaxRetries)

	cfg.NLU.Provider = envutil.String("NLU_PROVIDER", cfg.NLU.Provider)
	cfg.NLU.Temperature = envutil.Float("NLU_TEMPERATURE", cfg.NLU.Temperature)

	cfg.Vector.Provider = envutil.String("VECTOR_PROVIDER", cfg.Vector.Provider)
	cfg.Vector.IndexOnStart = envutil.Bool("MENU_INDEX_ON_START", cfg.Vector.IndexOnStart)
	cfg.Vector.Qdrant = qdrant.ConfigFromEnv(cfg.Vector.Qdrant)

	cfg.Ordering.Limits.MaxMessages = envutil.Int("MAX_CONVERSATION_MESSAGES", cfg.Ordering.Limits.MaxMessages)
	cfg.Ordering.Limits.MaxOrderQuantity = envutil.Int("MAX_ORDER_QUANTITY", cfg.Ordering.Limits.MaxOrderQuantity)
	cfg.Ordering.Limits.MaxItemQuantity = envutil.Int("MAX_ITEM_QUANTITY", cfg.Ordering.Limits.MaxItemQuantity)
	cfg.Ordering.RAGLimit = envutil.Int("RAG_CANDIDATE_LIMIT", cfg.Ordering.RAGLimit)
	cfg.Ordering.HistoryWindow = envutil.Int("HISTORY_WINDOW", cfg.Ordering.HistoryWindow)
	cfg.Ordering.CatalogTTL = envutil.Duration("MENU_CACHE_TTL", cfg.Ordering.CatalogTTL)

	cfg.Menu.SeedOnStart = envutil.Bool("MENU_SEED_ON_START", cfg.Menu.SeedOnStart)
	cfg.Menu.SeedFile = envutil.String("MENU_SEED_FILE", cfg.Menu.SeedFile)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", cfg.Otel.Environment)
	cfg.Otel.Version = envutil.String("SERVICE_VERSION", cfg.Otel.Version)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Otel.SampleRatio)
	if h := envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""); h != "" {
		cfg.Otel.Headers = observability.ParseHeaders(h)
	}
}

// normalize clamps tunables and rejects unknown providers.
func (c *Config) normalize() error {
	c.NLU.Provider = strings.ToLower(strings.TrimSpace(c.NLU.Provider))
	switch c.NLU.Provider {
	case NLUProviderOpenAI, NLUProviderLangChain:
	default:
		return fmt.Errorf("unsupported NLU_PROVIDER %q (want openai or langchain)", c.NLU.Provider)
	}

	c.Vector.Provider = strings.ToLower(strings.TrimSpace(c.Vector.Provider))
	switch c.Vector.Provider {
	case VectorProviderMemory, VectorProviderQdrant:
	default:
		return fmt.Errorf("unsupported VECTOR_PROVIDER %q (want memory or qdrant)", c.Vector.Provider)
	}

	c.Ordering.RAGLimit = envutil.Clamp(c.Ordering.RAGLimit, 3, 5)
	c.Ordering.HistoryWindow = envutil.Clamp(c.Ordering.HistoryWindow, 6, 10)

	// The confidence floor is fixed; config files cannot move it.
	def := types.DefaultLimits()
	c.Ordering.Limits.ConfidenceFloor = def.ConfidenceFloor
	if c.Ordering.Limits.MaxMessages <= 0 {
		c.Ordering.Limits.MaxMessages = def.MaxMessages
	}
	if c.Ordering.Limits.MaxOrderQuantity <= 0 {
		c.Ordering.Limits.MaxOrderQuantity = def.MaxOrderQuantity
	}
	if c.Ordering.Limits.MaxItemQuantity <= 0 {
		c.Ordering.Limits.MaxItemQuantity = def.MaxItemQuantity
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
