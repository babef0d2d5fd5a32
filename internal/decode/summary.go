package decode

import (
	"net"
	"time"

	"github.com/nickproject/pktsniff/internal/capture"
)

// Summary 单个帧的规范化摘要
// 除 Timestamp 和 FrameLen 外都是可选字段，对应的层不存在时保持零值
type Summary struct {
	Timestamp time.Time
	FrameLen  int
	Protocol  string
	SrcMAC    net.HardwareAddr
	DstMAC    net.HardwareAddr
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   *uint16
	DstPort   *uint16
	HexDump   string

	// ServerName TLS ClientHello 中的 SNI，只用于导出
	ServerName string
}

func newSummary(f capture.Frame) *Summary {
	return &Summary{
		Timestamp: f.Timestamp.UTC(),
		FrameLen:  len(f.Data),
	}
}

// TimestampString ISO-8601 UTC 时间戳
func (s *Summary) TimestampString() string {
	return s.Timestamp.UTC().Format(time.RFC3339Nano)
}

func (s *Summary) setMACs(src, dst net.HardwareAddr) {
	s.SrcMAC = append(net.HardwareAddr(nil), src...)
	s.DstMAC = append(net.HardwareAddr(nil), dst...)
}

func (s *Summary) setIPs(src, dst net.IP) {
	s.SrcIP = append(net.IP(nil), src...)
	s.DstIP = append(net.IP(nil), dst...)
}

func (s *Summary) setPorts(src, dst uint16) {
	s.SrcPort = &src
	s.DstPort = &dst
}
