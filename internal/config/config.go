// Package config loads the Provider Pool Manager's configuration inputs
// (SPEC_FULL.md §6) via viper: a pool document path, health-check timing,
// error-escalation threshold, log level, and per-family system-proxy
// toggles, sourced from environment variables with a config file layered
// underneath.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/oakhollow/providerpool/internal/adapter"
)

// Config is the fully-resolved set of tunables the manager needs at
// startup.
type Config struct {
	PoolFilePath        string
	MaxErrorCount       int
	HealthCheckInterval time.Duration
	SaveDebounceTime    time.Duration
	LogLevel            string
	ProbeRateLimit      float64
	Proxy               adapter.ProxyConfig
}

// Load reads configuration from environment variables and, if present, a
// config file at configPath (any format viper supports: yaml, toml, json).
// An empty configPath skips the file and relies on defaults plus env vars.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("poolFilePath", "provider_pools.json")
	v.SetDefault("maxErrorCount", 3)
	v.SetDefault("healthCheckIntervalMs", 600_000)
	v.SetDefault("saveDebounceTimeMs", 1000)
	v.SetDefault("logLevel", "info")
	v.SetDefault("probeRateLimit", 0.0)
	v.SetDefault("useSystemProxyGemini", false)
	v.SetDefault("useSystemProxyOpenai", false)
	v.SetDefault("useSystemProxyClaude", false)
	v.SetDefault("useSystemProxyQwen", false)
	v.SetDefault("useSystemProxyKiro", false)

	mustBindEnv(v, "poolFilePath", "PROVIDER_POOLS_FILE_PATH")
	mustBindEnv(v, "maxErrorCount", "MAX_ERROR_COUNT")
	mustBindEnv(v, "healthCheckIntervalMs", "HEALTH_CHECK_INTERVAL_MS")
	mustBindEnv(v, "saveDebounceTimeMs", "SAVE_DEBOUNCE_TIME_MS")
	mustBindEnv(v, "logLevel", "LOG_LEVEL")
	mustBindEnv(v, "probeRateLimit", "PROBE_RATE_LIMIT")
	mustBindEnv(v, "useSystemProxyGemini", "USE_SYSTEM_PROXY_GEMINI")
	mustBindEnv(v, "useSystemProxyOpenai", "USE_SYSTEM_PROXY_OPENAI")
	mustBindEnv(v, "useSystemProxyClaude", "USE_SYSTEM_PROXY_CLAUDE")
	mustBindEnv(v, "useSystemProxyQwen", "USE_SYSTEM_PROXY_QWEN")
	mustBindEnv(v, "useSystemProxyKiro", "USE_SYSTEM_PROXY_KIRO")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	cfg := &Config{
		PoolFilePath:        v.GetString("poolFilePath"),
		MaxErrorCount:       v.GetInt("maxErrorCount"),
		HealthCheckInterval: time.Duration(v.GetInt64("healthCheckIntervalMs")) * time.Millisecond,
		SaveDebounceTime:    time.Duration(v.GetInt64("saveDebounceTimeMs")) * time.Millisecond,
		LogLevel:            v.GetString("logLevel"),
		ProbeRateLimit:      v.GetFloat64("probeRateLimit"),
		Proxy: adapter.ProxyConfig{
			Gemini: v.GetBool("useSystemProxyGemini"),
			OpenAI: v.GetBool("useSystemProxyOpenai"),
			Claude: v.GetBool("useSystemProxyClaude"),
			Qwen:   v.GetBool("useSystemProxyQwen"),
			Kiro:   v.GetBool("useSystemProxyKiro"),
		},
	}
	return cfg, nil
}

func mustBindEnv(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		panic(fmt.Sprintf("config: bind env %s: %v", env, err))
	}
}
