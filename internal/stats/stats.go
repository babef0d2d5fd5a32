package stats

import (
	"sort"
)

// Outcome 单帧处理结果
type Outcome uint8

const (
	Emitted  Outcome = iota // 输出了摘要
	Filtered                // 被子类型过滤掉
)

// Stats 会话统计，只在抓包回调中使用，不加锁
type Stats struct {
	total       counter
	perProtocol map[string]*counter
}

type counter struct {
	seen     uint64
	emitted  uint64
	filtered uint64
}

func (c *counter) add(o Outcome) {
	c.seen++
	switch o {
	case Emitted:
		c.emitted++
	case Filtered:
		c.filtered++
	}
}

// New 创建统计
func New() *Stats {
	return &Stats{perProtocol: make(map[string]*counter)}
}

// Observe 记录一帧
func (s *Stats) Observe(protocol string, o Outcome) {
	if protocol == "" {
		protocol = unknownProtocol
	}
	c, ok := s.perProtocol[protocol]
	if !ok {
		c = &counter{}
		s.perProtocol[protocol] = c
	}
	c.add(o)
	s.total.add(o)
}

// Snapshot 按帧数降序返回统计，帧数相同按协议名排序
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Seen:      s.total.seen,
		Emitted:   s.total.emitted,
		Filtered:  s.total.filtered,
		Protocols: make([]ProtocolEntry, 0, len(s.perProtocol)),
	}
	for name, c := range s.perProtocol {
		snap.Protocols = append(snap.Protocols, ProtocolEntry{
			Protocol: name,
			Seen:     c.seen,
			Emitted:  c.emitted,
			Filtered: c.filtered,
		})
	}

	sort.Slice(snap.Protocols, func(i, j int) bool {
		a, b := snap.Protocols[i], snap.Protocols[j]
		if a.Seen != b.Seen {
			return a.Seen > b.Seen
		}
		return a.Protocol < b.Protocol
	})
	return snap
}
