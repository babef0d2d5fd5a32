package config

import (
	"errors"
	"time"
)

var ErrInterfaceRequired = errors.New("抓包模式需要通过 -i 指定网卡或通过 -r 指定文件")

// Config 应用配置
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LogConfig     `mapstructure:"logging"`
}

// CaptureConfig 抓包配置
type CaptureConfig struct {
	SnapLen   int           `mapstructure:"snaplen"`
	NoPromisc bool          `mapstructure:"no_promisc"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ReadFile  string        `mapstructure:"read_file"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	File    string `mapstructure:"file"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			SnapLen:   65535,
			NoPromisc: false, // 默认混杂模式
			Timeout:   500 * time.Millisecond,
		},
		Output: OutputConfig{
			File:   "", // 为空表示不导出
			Format: "json",
		},
		Logging: LogConfig{
			Level:     "warn",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}
