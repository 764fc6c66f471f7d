package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
// The source site serves a reduced page to clients it does not recognize as
// browsers, so the agent string mimics one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	AnimeSubDomain        string `mapstructure:"animesub_domain"`
	PublicBaseURL         string `mapstructure:"public_base_url"` // external URL download links are built against; empty = derive from request headers
	ClientTimeout         string `mapstructure:"client_timeout"`  // Go duration string like "15s", "1m", etc.
	UserAgent             string `mapstructure:"user_agent"`
	Server                struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	LogLevel string `mapstructure:"log_level"`
	Search   struct {
		StrategyTimeout   string `mapstructure:"strategy_timeout"`   // per search query
		DiscoveryDeadline string `mapstructure:"discovery_deadline"` // whole discovery request
	} `mapstructure:"search"`
	Cache struct {
		Provider  string `mapstructure:"provider"` // memory or redis
		Size      int    `mapstructure:"size"`     // Maximum number of entries in the LRU cache
		SearchTTL string `mapstructure:"search_ttl"`
		MetaTTL   string `mapstructure:"meta_ttl"`
		Redis     struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Archive struct {
		SevenZipPath    string `mapstructure:"seven_zip_path"`
		SevenZipTimeout string `mapstructure:"seven_zip_timeout"`
	} `mapstructure:"archive"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	// Set the global log level
	zerolog.SetGlobalLevel(level)

	// Update logger with the configured level
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("animesub_domain", "http://animesub.info")
	viper.SetDefault("client_timeout", "15s")
	viper.SetDefault("server.port", 7000)
	viper.SetDefault("search.strategy_timeout", "5s")
	viper.SetDefault("search.discovery_deadline", "8s")
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 512)
	viper.SetDefault("cache.search_ttl", "30m")
	viper.SetDefault("cache.meta_ttl", "1h")
	viper.SetDefault("archive.seven_zip_path", "7z")
	viper.SetDefault("archive.seven_zip_timeout", "10s")
	viper.SetDefault("metrics.port", 9090)

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
