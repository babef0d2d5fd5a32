// Package decode 把原始以太网帧解码为规范化摘要，并做抓包后的细粒度过滤。
//
// BPF 表达式只能把 ICMPv6、NDP、MLD 统一放行为 icmp6，子类型是否符合用户意图
// 在这里按层链自上而下判断：
//
//	Ethernet -> IPv6 -> ICMPv6 子类型 (MLD / NDP / 其他)
//	         -> 其他 (IPv4、ARP、未知) -> 通用提取
//
// 任一层缺失或损坏都不算错误，只是对应字段留空。
package decode

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"github.com/nickproject/pktsniff/internal/capture"
	"github.com/nickproject/pktsniff/internal/filter"
	"github.com/nickproject/pktsniff/internal/hexdump"
)

// ErrUnsupportedLinkType 不支持的链路层类型，抓包会话必须中止
type ErrUnsupportedLinkType struct {
	LinkType layers.LinkType
}

func (e *ErrUnsupportedLinkType) Error() string {
	return fmt.Sprintf("不支持的链路层类型 %s，仅支持 Ethernet", e.LinkType)
}

// Classifier 帧分类器，不持有跨帧状态
type Classifier struct {
	spec *filter.Spec
}

// NewClassifier 创建分类器
func NewClassifier(spec *filter.Spec) *Classifier {
	return &Classifier{spec: spec}
}

// Classify 解码帧并生成摘要
// ok 为 false 表示帧被 ICMPv6 子类型过滤掉，此时摘要只含协议和地址，不应输出；
// 返回错误只可能是 *ErrUnsupportedLinkType。
// 端口约束只作用于 BPF 表达式，这里不做二次校验。
func (c *Classifier) Classify(f capture.Frame) (s *Summary, ok bool, err error) {
	if f.LinkType != layers.LinkTypeEthernet {
		return nil, false, &ErrUnsupportedLinkType{LinkType: f.LinkType}
	}

	s = newSummary(f)
	ch := newChain(f.Data)
	if p, ok := ch.protocol(); ok {
		s.Protocol = p.String()
	}

	if ch.eth == nil {
		return c.finishDefault(s, ch, f.Data), true, nil
	}
	s.setMACs(ch.eth.SrcMAC, ch.eth.DstMAC)

	if ch.network == netIPv6 {
		s, ok = c.handleIPv6(s, ch, f.Data)
		return s, ok, nil
	}
	// IPv4、ARP 及未知负载都走通用提取
	return c.finishDefault(s, ch, f.Data), true, nil
}

func (c *Classifier) handleIPv6(s *Summary, ch *chain, data []byte) (*Summary, bool) {
	if ch.ip6 == nil {
		return c.finishDefault(s, ch, data), true
	}
	s.setIPs(ch.ip6.SrcIP, ch.ip6.DstIP)

	if ch.upperProtocol() != layers.IPProtocolICMPv6 || ch.icmp6 == nil {
		return c.finishIP(s, ch, data), true
	}

	switch kind := classifyICMPv6(ch.icmp6.TypeCode.Type()); kind {
	case icmp6MLD, icmp6NDP:
		if !c.spec.Has(kind.protocol()) {
			return s, false
		}
	case icmp6Generic:
		// 普通 ICMPv6 已被 icmp6 子句放行，没有更细的条件
	}
	return c.finishIP(s, ch, data), true
}

// finishDefault 通用提取：IP、端口、完整帧转储
func (c *Classifier) finishDefault(s *Summary, ch *chain, data []byte) *Summary {
	if src, dst, ok := ch.ip(); ok {
		s.setIPs(src, dst)
	}
	return c.finishIP(s, ch, data)
}

// finishIP IP 已经填好，只提取端口和转储
func (c *Classifier) finishIP(s *Summary, ch *chain, data []byte) *Summary {
	if src, dst, ok := ch.ports(); ok {
		s.setPorts(src, dst)
	}
	if name, ok := ch.serverName(); ok {
		s.ServerName = name
	}
	s.HexDump = hexdump.Dump(data)
	return s
}
