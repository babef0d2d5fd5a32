package decode

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/nickproject/pktsniff/internal/filter"
	"github.com/nickproject/pktsniff/internal/parser"
)

// networkKind 以太网负载类型
type networkKind uint8

const (
	netNone networkKind = iota // 以太网头都解不出来
	netIPv4
	netIPv6
	netARP
	netOther
)

// icmp6Kind ICMPv6 子类型分组
type icmp6Kind uint8

const (
	icmp6Generic icmp6Kind = iota
	icmp6NDP
	icmp6MLD
)

// gopacket 未导出 MLD 的类型常量
const (
	icmp6TypeMLDQuery    = 130
	icmp6TypeMLDReport   = 131
	icmp6TypeMLDDone     = 132
	icmp6TypeMLDv2Report = 143
)

func classifyICMPv6(typ uint8) icmp6Kind {
	switch typ {
	case icmp6TypeMLDQuery, icmp6TypeMLDReport, icmp6TypeMLDDone, icmp6TypeMLDv2Report:
		return icmp6MLD
	case layers.ICMPv6TypeRouterSolicitation,
		layers.ICMPv6TypeRouterAdvertisement,
		layers.ICMPv6TypeNeighborSolicitation,
		layers.ICMPv6TypeNeighborAdvertisement,
		layers.ICMPv6TypeRedirect:
		return icmp6NDP
	default:
		return icmp6Generic
	}
}

func (k icmp6Kind) protocol() filter.Protocol {
	switch k {
	case icmp6NDP:
		return filter.ProtoNDP
	case icmp6MLD:
		return filter.ProtoMLD
	default:
		return filter.ProtoICMPv6
	}
}

// chain 一个帧解码后的层链
type chain struct {
	pkt     gopacket.Packet
	eth     *layers.Ethernet
	network networkKind
	ip4     *layers.IPv4
	ip6     *layers.IPv6
	icmp6   *layers.ICMPv6
}

var decodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}

func newChain(data []byte) *chain {
	c := &chain{pkt: gopacket.NewPacket(data, layers.LayerTypeEthernet, decodeOptions)}

	c.eth, _ = c.pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	c.ip4, _ = c.pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	c.ip6, _ = c.pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
	c.icmp6, _ = c.pkt.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6)

	if c.eth == nil {
		c.network = netNone
		return c
	}
	switch c.eth.EthernetType {
	case layers.EthernetTypeIPv4:
		c.network = netIPv4
	case layers.EthernetTypeIPv6:
		c.network = netIPv6
	case layers.EthernetTypeARP:
		c.network = netARP
	default:
		c.network = netOther
	}
	return c
}

// upperProtocol IPv6 跳过 hop-by-hop 扩展头后的上层协议
func (c *chain) upperProtocol() layers.IPProtocol {
	if c.ip6 == nil {
		return 0
	}
	if c.ip6.NextHeader == layers.IPProtocolIPv6HopByHop && c.ip6.HopByHop != nil {
		return c.ip6.HopByHop.NextHeader
	}
	return c.ip6.NextHeader
}

// ip 第一个能解出的 IP 头
func (c *chain) ip() (src, dst []byte, ok bool) {
	if c.ip4 != nil {
		return c.ip4.SrcIP, c.ip4.DstIP, true
	}
	if c.ip6 != nil {
		return c.ip6.SrcIP, c.ip6.DstIP, true
	}
	return nil, nil, false
}

// ports TCP 优先于 UDP
func (c *chain) ports() (src, dst uint16, ok bool) {
	if tcp, isTCP := c.pkt.Layer(layers.LayerTypeTCP).(*layers.TCP); isTCP {
		return uint16(tcp.SrcPort), uint16(tcp.DstPort), true
	}
	if udp, isUDP := c.pkt.Layer(layers.LayerTypeUDP).(*layers.UDP); isUDP {
		return uint16(udp.SrcPort), uint16(udp.DstPort), true
	}
	return 0, 0, false
}

// serverName TCP 负载是 ClientHello 时返回 SNI
func (c *chain) serverName() (string, bool) {
	tcp, ok := c.pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
	if !ok || !parser.IsClientHello(tcp.Payload) {
		return "", false
	}
	name, err := parser.ServerName(tcp.Payload)
	if err != nil {
		return "", false
	}
	return name, true
}

// protocol 摘要中的协议标签，无法识别时 ok 为 false
func (c *chain) protocol() (filter.Protocol, bool) {
	switch {
	case c.pkt.Layer(layers.LayerTypeARP) != nil:
		return filter.ProtoARP, true
	case c.pkt.Layer(layers.LayerTypeTCP) != nil:
		return filter.ProtoTCP, true
	case c.pkt.Layer(layers.LayerTypeUDP) != nil:
		return filter.ProtoUDP, true
	case c.pkt.Layer(layers.LayerTypeICMPv4) != nil:
		return filter.ProtoICMPv4, true
	case c.icmp6 != nil:
		return classifyICMPv6(c.icmp6.TypeCode.Type()).protocol(), true
	case c.ip4 != nil && c.ip4.Protocol == layers.IPProtocolIGMP:
		return filter.ProtoIGMP, true
	default:
		return 0, false
	}
}
