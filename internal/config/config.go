package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// generateTimeoutMargin is added to llm.timeout when generate.timeout is
// unset, so the client outlives the upstream call it waits on.
const generateTimeoutMargin = 10 * time.Second

type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	LLM struct {
		Provider  string
		APIKey    string
		BaseURL   string
		Model     string
		MaxTokens int
		Timeout   time.Duration
		Prompt    string
	}
	Chat struct {
		SystemPrompt string
		Timeout      time.Duration
	}
	Generate struct {
		Timeout time.Duration
	}
	Backend struct {
		URL string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Templates struct {
		File string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	Tracing struct {
		Enabled    bool
		Endpoint   string
		SampleRate float64
	}
	SessionLifetime time.Duration
}

// Load reads config from environment (WRITER_ prefix), an optional .env file
// and an optional joe-writer.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env

	v := viper.New()
	v.SetEnvPrefix("WRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("joe-writer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("chat.system_prompt", "You are a helpful writing assistant.")
	v.SetDefault("chat.timeout", "5m")
	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("session.lifetime", "24h")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.LLM.Provider = v.GetString("llm.provider")
	cfg.LLM.APIKey = v.GetString("llm.api_key")
	cfg.LLM.BaseURL = v.GetString("llm.base_url")
	cfg.LLM.Model = v.GetString("llm.model")
	cfg.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	cfg.LLM.Prompt = v.GetString("llm.prompt")
	cfg.Chat.SystemPrompt = v.GetString("chat.system_prompt")
	cfg.Backend.URL = v.GetString("backend.url")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Templates.File = v.GetString("templates.file")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.RateLimit.Requests = v.GetInt("ratelimit.requests")
	cfg.Tracing.Enabled = v.GetBool("tracing.enabled")
	cfg.Tracing.Endpoint = v.GetString("tracing.endpoint")
	cfg.Tracing.SampleRate = v.GetFloat64("tracing.sample_rate")

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"llm.timeout", &cfg.LLM.Timeout},
		{"chat.timeout", &cfg.Chat.Timeout},
		{"ratelimit.window", &cfg.RateLimit.Window},
		{"session.lifetime", &cfg.SessionLifetime},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envName(d.key), err)
		}
		*d.dst = parsed
	}

	if raw := v.GetString("generate.timeout"); raw == "" {
		cfg.Generate.Timeout = cfg.LLM.Timeout + generateTimeoutMargin
	} else {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envName("generate.timeout"), err)
		}
		if parsed < cfg.LLM.Timeout {
			return nil, fmt.Errorf("%s (%s) must not be shorter than %s (%s)",
				envName("generate.timeout"), parsed, envName("llm.timeout"), cfg.LLM.Timeout)
		}
		cfg.Generate.Timeout = parsed
	}

	if (cfg.DB.Driver == "") != (cfg.DB.DSN == "") {
		return nil, fmt.Errorf("WRITER_DB_DRIVER and WRITER_DB_DSN must be set together")
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = loopbackURL(cfg.HTTP.Addr)
	}
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")

	return cfg, nil
}

// loopbackURL is the API base URL of a server listening on addr on this host.
func loopbackURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://127.0.0.1:8080/api"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api"
}

func envName(key string) string {
	return "WRITER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
