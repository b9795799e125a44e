package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the content agent.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Server    ServerConfig    `mapstructure:"server"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Feeds     []FeedConfig    `mapstructure:"feeds"`
}

// LLMConfig contains the model provider settings. The API key is not
// validated here: commands that never talk to the model (migrate) must work
// without one, so the key is checked where a pipeline is actually built.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be greater than zero")
	}
	if l.Temperature < 0 || l.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be within [0, 1]")
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be greater than zero")
	}
	return nil
}

// ServerConfig contains HTTP server and auth settings. An empty APISecret
// disables request authentication.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	APISecret string `mapstructure:"api_secret"`
}

// SlackConfig contains Slack delivery settings. Both fields are optional;
// requests carrying a response_url need neither.
type SlackConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
}

// ToolsConfig contains research tool settings.
type ToolsConfig struct {
	BraveAPIKey     string        `mapstructure:"brave_api_key"`
	ArticleFetcher  string        `mapstructure:"article_fetcher"`
	FeedTimeout     time.Duration `mapstructure:"feed_timeout"`
	ArticleTimeout  time.Duration `mapstructure:"article_timeout"`
	ArticleMaxChars int           `mapstructure:"article_max_chars"`
}

// BudgetConfig bounds one loop pipeline.
type BudgetConfig struct {
	MaxIterations    int `mapstructure:"max_iterations"`
	ForceOutputAfter int `mapstructure:"force_output_after"`
	MaxTokens        int `mapstructure:"max_tokens"`
}

func (b BudgetConfig) Validate() error {
	if b.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if b.ForceOutputAfter <= 0 {
		return fmt.Errorf("force_output_after must be positive")
	}
	if b.ForceOutputAfter >= b.MaxIterations {
		// Equality leaves the nudged model no iteration to answer in.
		return fmt.Errorf("force_output_after (%d) must stay below max_iterations (%d)", b.ForceOutputAfter, b.MaxIterations)
	}
	if b.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

// AgentConfig carries the per-pipeline loop budgets.
type AgentConfig struct {
	Ideas     BudgetConfig `mapstructure:"ideas"`
	Synthesis BudgetConfig `mapstructure:"synthesis"`
	Ideation  BudgetConfig `mapstructure:"ideation"`
	Post      BudgetConfig `mapstructure:"post"`
}

func (a AgentConfig) Validate() error {
	for _, pipeline := range []struct {
		name   string
		budget BudgetConfig
	}{
		{"agent.ideas", a.Ideas},
		{"agent.synthesis", a.Synthesis},
		{"agent.ideation", a.Ideation},
		{"agent.post", a.Post},
	} {
		if err := pipeline.budget.Validate(); err != nil {
			return fmt.Errorf("%s: %w", pipeline.name, err)
		}
	}
	return nil
}

// StorageConfig contains persistence settings. Both stores are optional:
// an unconfigured Postgres runs the pipelines stateless, an unconfigured
// Redis disables the cross-run dedup guard and the scheduler lock.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Enabled reports whether enough is configured to open a connection.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN renders the connection string. URL wins when set; otherwise the parts
// are assembled with the usual defaults. Empty when too little is configured.
func (p PostgresConfig) DSN() string {
	if url := strings.TrimSpace(p.URL); url != "" {
		return url
	}
	if strings.TrimSpace(p.Host) == "" || strings.TrimSpace(p.DBName) == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

func (p PostgresConfig) Validate() error {
	if !p.Enabled() {
		return nil
	}
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether an address is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// SchedulerConfig controls the built-in daily trigger. Subject seeds the
// scheduled idea run; TwoPhase selects the synthesis+ideation pipeline.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Spec     string `mapstructure:"spec"`
	Subject  string `mapstructure:"subject"`
	TwoPhase bool   `mapstructure:"two_phase"`
}

func (s SchedulerConfig) Validate() error {
	if s.Enabled && strings.TrimSpace(s.Spec) == "" {
		return fmt.Errorf("scheduler.spec is required when the scheduler is enabled")
	}
	return nil
}

// FeedConfig names one RSS feed the two-phase pipeline gathers itself.
type FeedConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// LoadConfig reads config.json from the given path (or the search cascade
// when the path is empty), layers LINKEDGEN_* and the well-known unprefixed
// environment variables on top and validates the result. A missing file in
// cascade mode is fine since defaults plus environment form a complete
// configuration; every other failure is fatal and panics.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LINKEDGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := validateConfig(&config); err != nil {
		panic(err)
	}
	return &config
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("llm.model", "claude-sonnet-4-6")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", "120s")

	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("tools.article_fetcher", "standard")
	viper.SetDefault("tools.feed_timeout", "15s")
	viper.SetDefault("tools.article_timeout", "15s")
	viper.SetDefault("tools.article_max_chars", 3000)

	viper.SetDefault("agent.ideas.max_iterations", 10)
	viper.SetDefault("agent.ideas.force_output_after", 6)
	viper.SetDefault("agent.ideas.max_tokens", 4096)
	viper.SetDefault("agent.synthesis.max_iterations", 12)
	viper.SetDefault("agent.synthesis.force_output_after", 8)
	viper.SetDefault("agent.synthesis.max_tokens", 4096)
	viper.SetDefault("agent.ideation.max_iterations", 8)
	viper.SetDefault("agent.ideation.force_output_after", 4)
	viper.SetDefault("agent.ideation.max_tokens", 4096)
	viper.SetDefault("agent.post.max_iterations", 6)
	viper.SetDefault("agent.post.force_output_after", 3)
	viper.SetDefault("agent.post.max_tokens", 2048)

	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.db", 0)

	viper.SetDefault("scheduler.spec", "@daily")
	viper.SetDefault("scheduler.two_phase", true)

	viper.SetDefault("feeds", []map[string]interface{}{
		{"name": "openai", "url": "https://openai.com/news/rss.xml"},
		{"name": "anthropic", "url": "https://www.anthropic.com/news/rss.xml"},
	})
}

// overrideFromEnv layers the unprefixed environment variables deployments
// actually set (ANTHROPIC_API_KEY, not LINKEDGEN_LLM_API_KEY) over whatever
// the file provided.
func overrideFromEnv() {
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		viper.Set("llm.api_key", apiKey)
	}
	if apiKey := os.Getenv("BRAVE_SEARCH_KEY"); apiKey != "" {
		viper.Set("tools.brave_api_key", apiKey)
	}

	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		viper.Set("slack.bot_token", token)
	}
	if channel := os.Getenv("SLACK_CHANNEL_ID"); channel != "" {
		viper.Set("slack.channel_id", channel)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		viper.Set("storage.postgres.url", url)
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		viper.Set("storage.postgres.host", host)
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		viper.Set("storage.postgres.port", port)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		viper.Set("storage.postgres.user", user)
	}
	if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
		viper.Set("storage.postgres.password", pass)
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		viper.Set("storage.postgres.dbname", db)
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		viper.Set("storage.redis.addr", addr)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		viper.Set("storage.redis.password", password)
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			viper.Set("storage.redis.db", n)
		}
	}
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if err := config.LLM.Validate(); err != nil {
		return err
	}
	if err := config.Agent.Validate(); err != nil {
		return err
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		return err
	}
	if err := config.Scheduler.Validate(); err != nil {
		return err
	}
	for i, feed := range config.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
	}
	return nil
}
