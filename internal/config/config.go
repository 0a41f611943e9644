// Package config resolves detector settings from defaults, an optional
// config file, AIDD_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/logging"
)

const EnvPrefix = "AIDD"

var validate = validator.New()

type Settings struct {
	Preset           string             `mapstructure:"preset" validate:"omitempty,oneof=conservative balanced aggressive"`
	Threshold        float64            `mapstructure:"threshold" validate:"gte=0,lte=1"`
	Weights          map[string]float64 `mapstructure:"weights" validate:"dive,gte=0"`
	NormalizeWeights bool               `mapstructure:"normalize_weights"`
	RulesFile        string             `mapstructure:"rules_file"`
	Workers          int                `mapstructure:"workers" validate:"gte=0,lte=256"`
	Hybrid           HybridSettings     `mapstructure:"hybrid"`
	Log              LogSettings        `mapstructure:"log"`
	Store            StoreSettings      `mapstructure:"store"`
	Server           ServerSettings     `mapstructure:"server"`
}

type HybridSettings struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider" validate:"oneof=ollama openai"`
	Host              string        `mapstructure:"host" validate:"omitempty,url"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	TraditionalWeight float64       `mapstructure:"traditional_weight" validate:"gte=0,lte=1"`
	AIWeight          float64       `mapstructure:"ai_weight" validate:"gte=0,lte=1"`
	MaxInputChars     int           `mapstructure:"max_input_chars" validate:"gte=0"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Output string `mapstructure:"output"`
}

type StoreSettings struct {
	// Path of the sqlite audit store; empty means the workspace default.
	Path string `mapstructure:"path"`
}

type ServerSettings struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"preset":            "preset",
	"threshold":         "threshold",
	"normalize-weights": "normalize_weights",
	"rules":             "rules_file",
	"workers":           "workers",
	"hybrid":            "hybrid.enabled",
	"provider":          "hybrid.provider",
	"host":              "hybrid.host",
	"model":             "hybrid.model",
	"timeout":           "hybrid.timeout",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"store":             "store.path",
	"addr":              "server.addr",
}

func setDefaults(v *viper.Viper) {
	hs := hybrid.DefaultSettings()
	ho := hybrid.DefaultOptions()
	lc := logging.DefaultConfig()

	v.SetDefault("preset", aidetect.PresetBalanced)
	v.SetDefault("threshold", aidetect.DefaultThreshold)
	v.SetDefault("weights", map[string]float64{})
	v.SetDefault("normalize_weights", false)
	v.SetDefault("rules_file", "")
	v.SetDefault("workers", 0)
	v.SetDefault("hybrid.enabled", false)
	v.SetDefault("hybrid.provider", ho.Provider)
	v.SetDefault("hybrid.host", "")
	v.SetDefault("hybrid.model", "")
	v.SetDefault("hybrid.api_key", "")
	v.SetDefault("hybrid.timeout", ho.Timeout)
	v.SetDefault("hybrid.max_retries", ho.MaxRetries)
	v.SetDefault("hybrid.traditional_weight", hs.TraditionalWeight)
	v.SetDefault("hybrid.ai_weight", hs.AIWeight)
	v.SetDefault("hybrid.max_input_chars", hs.MaxInputChars)
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", string(lc.Format))
	v.SetDefault("log.output", lc.Output)
	v.SetDefault("store.path", "")
	v.SetDefault("server.addr", "127.0.0.1:8080")
}

// RegisterFlags defines the shared detector flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (yaml, toml or json)")
	fs.String("preset", aidetect.PresetBalanced, "Weight preset: conservative, balanced or aggressive")
	fs.Float64("threshold", aidetect.DefaultThreshold, "Decision threshold for AI classification")
	fs.StringToString("weight", nil, "Per-feature weight override, e.g. --weight hedging=0.2")
	fs.Bool("normalize-weights", false, "Rescale weights to sum to 1")
	fs.String("rules", "", "Rules file (yaml, toml or json) replacing the built-in rules")
	fs.Bool("hybrid", false, "Blend the heuristic score with an LLM assessment")
	fs.String("provider", hybrid.ProviderOllama, "LLM provider for hybrid mode: ollama or openai")
	fs.String("host", "", "LLM host or OpenAI-compatible base URL")
	fs.String("model", "", "LLM model for hybrid mode")
	fs.Duration("timeout", 120*time.Second, "LLM request timeout")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")
	fs.String("store", "", "Path of the sqlite audit store")
}

// Load resolves settings. fs may be nil; only flags that exist on fs and
// were changed override lower layers.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path := configPath(v, fs); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if fs != nil {
		if f := fs.Lookup("weight"); f != nil && f.Changed {
			overrides, err := fs.GetStringToString("weight")
			if err != nil {
				return nil, fmt.Errorf("read --weight: %w", err)
			}
			if err := s.mergeWeights(overrides); err != nil {
				return nil, err
			}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &s, nil
}

func configPath(v *viper.Viper, fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return v.GetString("config")
}

func (s *Settings) mergeWeights(overrides map[string]string) error {
	if s.Weights == nil {
		s.Weights = map[string]float64{}
	}
	for name, raw := range overrides {
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("weight %s=%q: %w", name, raw, err)
		}
		s.Weights[strings.ToLower(strings.TrimSpace(name))] = w
	}
	return nil
}

func (s *Settings) Validate() error {
	var errs []error
	if err := validate.Struct(s); err != nil {
		errs = append(errs, err)
	}
	for name := range s.Weights {
		if _, err := aidetect.ParseFeature(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Detection builds the engine configuration: the preset, then weight
// overrides, optional normalization and the rules file.
func (s *Settings) Detection() (aidetect.Config, error) {
	name := s.Preset
	if name == "" {
		name = aidetect.PresetBalanced
	}
	cfg, err := aidetect.Preset(name)
	if err != nil {
		return aidetect.Config{}, err
	}
	cfg.Threshold = s.Threshold

	if len(s.Weights) > 0 {
		overrides, err := aidetect.WeightsFromNames(s.Weights)
		if err != nil {
			return aidetect.Config{}, err
		}
		for f, w := range overrides {
			cfg.Weights[f] = w
		}
	}
	if s.NormalizeWeights {
		cfg.Weights = cfg.Weights.Normalized()
	}
	if s.RulesFile != "" {
		rules, err := aidetect.LoadRules(s.RulesFile)
		if err != nil {
			return aidetect.Config{}, err
		}
		cfg.Rules = rules
	}
	if err := cfg.Validate(); err != nil {
		return aidetect.Config{}, fmt.Errorf("invalid detection config: %w", err)
	}
	return cfg, nil
}

func (s *Settings) HybridSettings() hybrid.Settings {
	return hybrid.Settings{
		Provider:          s.Hybrid.Provider,
		TraditionalWeight: s.Hybrid.TraditionalWeight,
		AIWeight:          s.Hybrid.AIWeight,
		MaxInputChars:     s.Hybrid.MaxInputChars,
		Timeout:           s.Hybrid.Timeout,
	}
}

func (s *Settings) ScorerOptions() hybrid.Options {
	opts := hybrid.DefaultOptions()
	opts.Provider = s.Hybrid.Provider
	opts.Host = s.Hybrid.Host
	opts.Model = s.Hybrid.Model
	opts.APIKey = s.Hybrid.APIKey
	opts.Timeout = s.Hybrid.Timeout
	opts.MaxRetries = s.Hybrid.MaxRetries
	return opts
}

func (s *Settings) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = s.Log.Level
	cfg.Format = logging.Format(s.Log.Format)
	if s.Log.Output != "" {
		cfg.Output = s.Log.Output
	}
	return cfg
}
