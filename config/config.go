// Package config 從環境變數與命令列旗標載入設定。
package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Raw        bool   `mapstructure:"EDID_RAW"`
	LogLevel   string `mapstructure:"EDID_LOG_LEVEL" validate:"oneof=debug info warn error"`
	ScriptsDir string `mapstructure:"EDID_SCRIPTS_DIR" validate:"required"`
	Script     string `mapstructure:"EDID_SCRIPT"`
	MaxSize    int    `mapstructure:"EDID_MAX_SIZE" validate:"min=1,max=65536"`
}

// flagKeys 將命令列旗標名稱對應到設定鍵。
var flagKeys = map[string]string{
	"raw":         "EDID_RAW",
	"log-level":   "EDID_LOG_LEVEL",
	"scripts-dir": "EDID_SCRIPTS_DIR",
	"script":      "EDID_SCRIPT",
	"max-size":    "EDID_MAX_SIZE",
}

// RegisterFlags 在 fs 上註冊可覆蓋設定的旗標。
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Bool("raw", true, "include raw hex/binary dumps of decoded fields")
	fs.String("log-level", "warn", "log level: debug, info, warn, error")
	fs.String("scripts-dir", "scripts", "directory scanned for .lua scripts (TUI)")
	fs.String("script", "", "lua script run against each decoded record")
	fs.Int("max-size", 4096, "maximum number of bytes read from an EDID file")
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(v *viper.Viper, c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			_ = v.BindEnv(tag)
		}
	}
}

// Load 依「旗標 > 環境變數 > 預設值」的順序合併設定。fs 可為 nil。
// 只有使用者明確指定的旗標會覆蓋環境變數。
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	bindEnv(v, Config{})
	v.AutomaticEnv()

	v.SetDefault("EDID_RAW", true)
	v.SetDefault("EDID_LOG_LEVEL", "warn")
	v.SetDefault("EDID_SCRIPTS_DIR", "scripts")
	v.SetDefault("EDID_MAX_SIZE", 4096)

	if fs != nil {
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	slog.Debug("Loaded configuration", "config", cfg)
	return &cfg, nil
}

// Level 將設定中的日誌等級轉成 slog.Level。
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
