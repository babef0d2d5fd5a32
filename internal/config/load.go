package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 PKTSNIFF_LOGGING_LEVEL
const EnvPrefix = "PKTSNIFF"

// Load 依次合并默认值、配置文件、环境变量 (含 .env) 和已绑定到 v 的命令行标志
// file 为空时在常用目录中查找 config.yaml，找不到不算错误
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 错误: %w", err)
	}

	cfg := Default()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pktsniff"))
		}
		v.AddConfigPath("/etc/pktsniff")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}
	return cfg, nil
}

// setDefaults AutomaticEnv 只对已知的 key 生效，所以默认值要逐个注册
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("capture.snaplen", cfg.Capture.SnapLen)
	v.SetDefault("capture.no_promisc", cfg.Capture.NoPromisc)
	v.SetDefault("capture.timeout", cfg.Capture.Timeout)
	v.SetDefault("capture.read_file", cfg.Capture.ReadFile)

	v.SetDefault("output.file", cfg.Output.File)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.no_color", cfg.Output.NoColor)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_files", cfg.Logging.MaxFiles)
}
