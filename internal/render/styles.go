package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	// 颜色定义
	primaryColor   = lipgloss.Color("39")  // 青色
	secondaryColor = lipgloss.Color("243") // 灰色
	successColor   = lipgloss.Color("42")  // 绿色
	warningColor   = lipgloss.Color("214") // 橙色
)

// styles 摘要块各部分样式
type styles struct {
	label   lipgloss.Style
	address lipgloss.Style
	port    lipgloss.Style
	dump    lipgloss.Style
}

// newStyles 按输出端的终端能力创建样式，非终端时 lipgloss 自动降级为纯文本
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		label:   r.NewStyle().Bold(true).Foreground(primaryColor),
		address: r.NewStyle().Foreground(successColor),
		port:    r.NewStyle().Foreground(warningColor),
		dump:    r.NewStyle().Foreground(secondaryColor),
	}
}
