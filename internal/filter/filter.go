package filter

import (
	"errors"
)

var (
	ErrPortWithoutProtocol = errors.New("端口过滤需要同时指定 --tcp 或 --udp")
	ErrInvalidCount        = errors.New("抓包数量必须大于 0")
)

// Options 构造 Spec 的输入，端口为 nil 表示不限制
type Options struct {
	Protocols []Protocol
	SrcPort   *uint16
	DstPort   *uint16
	Count     int
	Interface string
}

// Spec 用户期望的过滤条件，构造后不可变
type Spec struct {
	protocols []Protocol
	set       map[Protocol]struct{}
	srcPort   *uint16
	dstPort   *uint16
	count     int
	iface     string
}

// New 校验并创建过滤条件
// 重复的协议只保留第一次出现的位置；Count 为 0 时取默认值 1
func New(opts Options) (*Spec, error) {
	count := opts.Count
	if count == 0 {
		count = 1
	}
	if count < 0 {
		return nil, ErrInvalidCount
	}

	s := &Spec{
		set:   make(map[Protocol]struct{}, len(opts.Protocols)),
		count: count,
		iface: opts.Interface,
	}
	for _, p := range opts.Protocols {
		if _, ok := s.set[p]; ok {
			continue
		}
		s.set[p] = struct{}{}
		s.protocols = append(s.protocols, p)
	}

	if opts.SrcPort != nil || opts.DstPort != nil {
		if !s.Has(ProtoTCP) && !s.Has(ProtoUDP) {
			return nil, ErrPortWithoutProtocol
		}
	}
	if opts.SrcPort != nil {
		v := *opts.SrcPort
		s.srcPort = &v
	}
	if opts.DstPort != nil {
		v := *opts.DstPort
		s.dstPort = &v
	}
	return s, nil
}

// Protocols 返回协议列表副本
func (s *Spec) Protocols() []Protocol {
	out := make([]Protocol, len(s.protocols))
	copy(out, s.protocols)
	return out
}

// Has 判断协议是否在过滤条件中
func (s *Spec) Has(p Protocol) bool {
	_, ok := s.set[p]
	return ok
}

// IsEmpty 没有协议限制
func (s *Spec) IsEmpty() bool {
	return len(s.protocols) == 0
}

func (s *Spec) SrcPort() (uint16, bool) {
	if s.srcPort == nil {
		return 0, false
	}
	return *s.srcPort, true
}

func (s *Spec) DstPort() (uint16, bool) {
	if s.dstPort == nil {
		return 0, false
	}
	return *s.dstPort, true
}

func (s *Spec) Count() int {
	return s.count
}

func (s *Spec) Interface() string {
	return s.iface
}

// ListInterfaces 未指定网卡、协议和端口时只列出网卡
func (s *Spec) ListInterfaces() bool {
	return s.iface == "" && s.IsEmpty() && s.srcPort == nil && s.dstPort == nil
}
