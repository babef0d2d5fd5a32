package capture

import (
	"time"

	"github.com/google/gopacket/layers"
)

// Frame 一个原始帧，只在回调期间有效，处理方不得保留 Data 的引用
type Frame struct {
	LinkType  layers.LinkType
	Data      []byte
	Timestamp time.Time
}

// FrameHandler 帧到达回调，返回错误时抓包终止
type FrameHandler func(Frame) error

// Capabilities 数据源能力
type Capabilities struct {
	Live              bool // 实时网卡抓包
	SupportsBPFFilter bool // 是否支持 BPF 过滤
}
