package filter

import (
	"fmt"
)

// Protocol 协议过滤标签
type Protocol uint8

const (
	ProtoTCP Protocol = iota
	ProtoUDP
	ProtoICMPv4
	ProtoICMPv6
	ProtoARP
	ProtoNDP
	ProtoIGMP
	ProtoMLD
)

var protocolNames = map[Protocol]string{
	ProtoTCP:    "TCP",
	ProtoUDP:    "UDP",
	ProtoICMPv4: "ICMPv4",
	ProtoICMPv6: "ICMPv6",
	ProtoARP:    "ARP",
	ProtoNDP:    "NDP",
	ProtoIGMP:   "IGMP",
	ProtoMLD:    "MLD",
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Protocol(%d)", uint8(p))
}

// IsTransport TCP/UDP 才能携带端口约束
func (p Protocol) IsTransport() bool {
	return p == ProtoTCP || p == ProtoUDP
}
