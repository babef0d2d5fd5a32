package filter

import (
	"fmt"
	"strings"
)

// keyword 协议到 BPF 关键字的映射
// ICMPv6、NDP、MLD 共用 icmp6，子类型由解码阶段再过滤
func keyword(p Protocol) string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	case ProtoICMPv4:
		return "icmp"
	case ProtoICMPv6, ProtoNDP, ProtoMLD:
		return "icmp6"
	case ProtoARP:
		return "arp"
	case ProtoIGMP:
		return "igmp"
	default:
		return ""
	}
}

// portClause 生成端口子句，先 dst 后 src
func portClause(s *Spec) string {
	var b strings.Builder
	if p, ok := s.DstPort(); ok {
		fmt.Fprintf(&b, " and dst port %d", p)
	}
	if p, ok := s.SrcPort(); ok {
		fmt.Fprintf(&b, " and src port %d", p)
	}
	return b.String()
}

// Expression 生成抓包前的粗粒度 BPF 过滤表达式
// 没有协议限制时返回空串。pcap-filter 中 and/or 优先级相同，
// 多个子句时带端口的子句加括号。
func Expression(s *Spec) string {
	if s == nil || s.IsEmpty() {
		return ""
	}

	ports := portClause(s)
	seen := make(map[string]struct{}, len(s.protocols))
	var clauses []string
	for _, p := range s.protocols {
		kw := keyword(p)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}

		if p.IsTransport() {
			kw += ports
		}
		clauses = append(clauses, kw)
	}

	if len(clauses) > 1 && ports != "" {
		for i, c := range clauses {
			if strings.Contains(c, " and ") {
				clauses[i] = "(" + c + ")"
			}
		}
	}
	return strings.Join(clauses, " or ")
}
