// Package hexdump 生成帧的十六进制 + ASCII 转储文本
package hexdump

import (
	"fmt"
	"strings"
)

const (
	bytesPerLine = 16
	// 每字节 "xx " 三个字符，短行补齐到该宽度
	hexColumnWidth = bytesPerLine * 3
)

// Dump 每行 16 字节，格式为 "0xNNNN: <hex> <ascii>\n"
// 行号是十进制的 行序号*10，不是字节偏移
// 0x21~0x7E 原样显示，其余字节显示为 '.'
func Dump(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var b strings.Builder
	lines := (len(data) + bytesPerLine - 1) / bytesPerLine
	b.Grow(lines * (8 + hexColumnWidth + 1 + bytesPerLine + 1))

	for line := 0; line < lines; line++ {
		start := line * bytesPerLine
		end := start + bytesPerLine
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]

		fmt.Fprintf(&b, "0x%04d: ", line*10)
		for _, c := range chunk {
			fmt.Fprintf(&b, "%02x ", c)
		}
		if pad := hexColumnWidth - len(chunk)*3; pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteByte(' ')
		for _, c := range chunk {
			b.WriteByte(printable(c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func printable(c byte) byte {
	if c >= 0x21 && c <= 0x7e {
		return c
	}
	return '.'
}
