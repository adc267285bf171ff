package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Enabled     bool
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		PollTimeout int   `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Gateway struct {
		BaseURL           string        `mapstructure:"base_url"`
		Username          string        `mapstructure:"username"`
		Password          string        `mapstructure:"password"`
		Token             string        `mapstructure:"token"`
		Timeout           time.Duration `mapstructure:"timeout"`
		Retries           int           `mapstructure:"retries"`
		RetryWait         time.Duration `mapstructure:"retry_wait"`
		SpecificationPath string        `mapstructure:"specification_path"`
		OfferingPath      string        `mapstructure:"offering_path"`
		CacheSize         int           `mapstructure:"cache_size"`
	} `mapstructure:"gateway"`

	Assistant struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"assistant"`

	Agent struct {
		StartStructured bool `mapstructure:"start_structured"`
	} `mapstructure:"agent"`
}

// Load читает YAML, поверх него переменные окружения с префиксом APP_
// (APP_GATEWAY_BASE_URL и т.п.). Если рядом лежит .env — он подгружается первым.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("gateway.cache_size", 256)
	v.SetDefault("gateway.retries", 3)
	v.SetDefault("gateway.retry_wait", "500ms")
	v.SetDefault("agent.start_structured", true)
	// без дефолта AutomaticEnv не видит ключ при Unmarshal
	for _, k := range []string{
		"telegram.token", "postgres.dsn",
		"gateway.base_url", "gateway.username", "gateway.password", "gateway.token",
		"gateway.specification_path", "gateway.offering_path",
		"assistant.api_key", "assistant.model",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("metrics.enabled", false)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Gateway.BaseURL == "" {
		return c, errors.New("config: gateway.base_url is required")
	}
	return c, nil
}
