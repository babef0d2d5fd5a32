package render

import (
	"net"
	"strconv"
	"strings"
)

// FormatMAC 冒号分隔的大写十六进制
func FormatMAC(mac net.HardwareAddr) string {
	return strings.ToUpper(mac.String())
}

// FormatPort 端口转字符串
func FormatPort(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}

// FormatFrameLen 帧长度
func FormatFrameLen(n int) string {
	return strconv.Itoa(n) + " bytes"
}
