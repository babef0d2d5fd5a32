package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownInterface = errors.New("网卡不存在")

// Capturer 抓包器接口
type Capturer interface {
	// SetFilter 安装粗粒度 BPF 过滤表达式，必须在 Start 之前调用
	SetFilter(expr string) error
	// Start 启动抓包，每个帧同步调用一次 handler，阻塞直到 ctx 取消、输入结束或出错
	Start(ctx context.Context, handler FrameHandler) error
	// Stop 停止投递新的帧
	Stop() error
	// Close 释放底层句柄
	Close() error
	// Capabilities 返回数据源能力
	Capabilities() Capabilities
}

// CaptureConfig 抓包配置
type CaptureConfig struct {
	Interface   string        // 实时抓包网卡
	ReadFile    string        // 离线 pcap/pcapng 文件，非空时忽略 Interface
	SnapLen     int           // 单帧最大抓取长度
	Promiscuous bool          // 混杂模式
	Timeout     time.Duration // 读超时，用于周期性检查 ctx
}

const defaultSnapLen = 65535

func (c CaptureConfig) snapLen() int {
	if c.SnapLen <= 0 {
		return defaultSnapLen
	}
	return c.SnapLen
}

// New 根据配置创建 Capturer
func New(cfg CaptureConfig) (Capturer, error) {
	if cfg.ReadFile != "" {
		return newFileCapturer(cfg)
	}

	ok, err := HasInterface(cfg.Interface)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterface, cfg.Interface)
	}
	return newPcapCapturer(cfg)
}
