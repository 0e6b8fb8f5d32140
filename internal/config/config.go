package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL         string            `yaml:"base_url"`
		APIKey          string            `yaml:"api_key"`
		RateLimitPerMin int               `yaml:"rate_limit_per_min"`
		SymbolMap       map[string]string `yaml:"symbol_map"`
	} `yaml:"provider"`
	Portfolio struct {
		InceptionDate  string   `yaml:"inception_date"`
		InitialCapital float64  `yaml:"initial_capital"`
		PositionSize   float64  `yaml:"position_size"`
		LongTickers    []string `yaml:"long_tickers"`
		ShortTickers   []string `yaml:"short_tickers"`
		Benchmarks     []string `yaml:"benchmarks"`
		RankingCSV     string   `yaml:"ranking_csv"`
		BasketSize     int      `yaml:"basket_size"`
	} `yaml:"portfolio"`
	Update struct {
		FetchWindow     string `yaml:"fetch_window"`
		MinSeriesPoints int    `yaml:"min_series_points"`
	} `yaml:"update"`
	Cache struct {
		PriceFile string `yaml:"price_file"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MARKETDATA_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("MARKETDATA_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.RateLimitPerMin = n
		}
	}
	if v := os.Getenv("INCEPTION_DATE"); v != "" {
		cfg.Portfolio.InceptionDate = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Portfolio.InitialCapital = f
		}
	}
	if v := os.Getenv("PRICE_CACHE_FILE"); v != "" {
		cfg.Cache.PriceFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Provider.RateLimitPerMin == 0 {
		cfg.Provider.RateLimitPerMin = 5
	}
	if cfg.Provider.SymbolMap == nil {
		cfg.Provider.SymbolMap = map[string]string{
			"^GSPC": "SPY", // S&P 500 -> tradable ETF proxy
			"^RUA":  "IWV", // Russell 3000
		}
	}
	if cfg.Portfolio.InitialCapital == 0 {
		cfg.Portfolio.InitialCapital = 100000
	}
	if cfg.Portfolio.PositionSize == 0 {
		cfg.Portfolio.PositionSize = 0.01
	}
	if len(cfg.Portfolio.Benchmarks) == 0 {
		cfg.Portfolio.Benchmarks = []string{"^GSPC", "^RUA"}
	}
	if cfg.Portfolio.BasketSize == 0 {
		cfg.Portfolio.BasketSize = 100
	}
	if cfg.Update.FetchWindow == "" {
		cfg.Update.FetchWindow = "since_last"
	}
	if cfg.Update.MinSeriesPoints == 0 {
		cfg.Update.MinSeriesPoints = 2
	}
	if cfg.Cache.PriceFile == "" {
		cfg.Cache.PriceFile = "data/price_cache.json"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Provider.RateLimitPerMin <= 0 {
		return fmt.Errorf("provider.rate_limit_per_min must be positive")
	}
	if c.Portfolio.InceptionDate == "" {
		return fmt.Errorf("portfolio.inception_date is required")
	}
	if _, err := time.Parse("2006-01-02", c.Portfolio.InceptionDate); err != nil {
		return fmt.Errorf("portfolio.inception_date: %w", err)
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("portfolio.initial_capital must be positive")
	}
	if c.Portfolio.PositionSize <= 0 || c.Portfolio.PositionSize > 1 {
		return fmt.Errorf("portfolio.position_size must be in (0, 1]")
	}
	if c.Portfolio.RankingCSV == "" && len(c.Portfolio.LongTickers) == 0 {
		return fmt.Errorf("either portfolio.ranking_csv or portfolio.long_tickers/short_tickers is required")
	}
	if w := c.Update.FetchWindow; w != "since_last" && w != "today_only" {
		return fmt.Errorf("update.fetch_window must be since_last or today_only, got %q", w)
	}
	if n := c.Update.MinSeriesPoints; n < 1 || n > 2 {
		return fmt.Errorf("update.min_series_points must be 1 or 2, got %d", n)
	}
	return nil
}
