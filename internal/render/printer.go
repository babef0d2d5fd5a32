// Package render 把摘要输出为人类可读的文本块
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nickproject/pktsniff/internal/decode"
)

// Printer 把摘要逐个写到输出端，块之间空一行
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	styles styles
}

// NewPrinter 创建输出器，color 为 false 时输出纯文本
func NewPrinter(w io.Writer, color bool) *Printer {
	p := &Printer{w: w, color: color}
	if color {
		p.styles = newStyles(w)
	}
	return p
}

// Emit 输出一个摘要块
func (p *Printer) Emit(s *decode.Summary) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := io.WriteString(p.w, p.format(s)+"\n")
	return err
}

// plain 纯文本格式的摘要块
func plain(s *decode.Summary) string {
	return (&Printer{}).format(s)
}

func (p *Printer) format(s *decode.Summary) string {
	var b strings.Builder

	field := func(label, value string, style func(string) string) {
		if p.color {
			label = p.styles.label.Render(label)
			if style != nil {
				value = style(value)
			}
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	addr := func(v string) string { return p.styles.address.Render(v) }
	port := func(v string) string { return p.styles.port.Render(v) }

	field("timestamp", s.TimestampString(), nil)
	if s.SrcMAC != nil {
		field("src MAC", FormatMAC(s.SrcMAC), addr)
	}
	if s.DstMAC != nil {
		field("dst MAC", FormatMAC(s.DstMAC), addr)
	}
	field("frame length", FormatFrameLen(s.FrameLen), nil)
	if s.SrcIP != nil {
		field("src IP", s.SrcIP.String(), addr)
	}
	if s.DstIP != nil {
		field("dst IP", s.DstIP.String(), addr)
	}
	if s.SrcPort != nil {
		field("src port", FormatPort(*s.SrcPort), port)
	}
	if s.DstPort != nil {
		field("dst port", FormatPort(*s.DstPort), port)
	}

	b.WriteByte('\n')
	if !p.color {
		b.WriteString(s.HexDump)
		return b.String()
	}
	// 逐行渲染，lipgloss 对多行文本会补齐行宽
	for _, line := range strings.Split(strings.TrimSuffix(s.HexDump, "\n"), "\n") {
		if line == "" {
			continue
		}
		b.WriteString(p.styles.dump.Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}
