package capture

import (
	"fmt"

	"github.com/google/gopacket/pcap"
)

// ListInterfaces 列出 libpcap 可见的全部网卡名
func ListInterfaces() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("枚举网卡失败: %w", err)
	}

	names := make([]string, 0, len(devs))
	for _, dev := range devs {
		names = append(names, dev.Name)
	}
	return names, nil
}

// HasInterface 检查网卡是否存在
func HasInterface(name string) (bool, error) {
	names, err := ListInterfaces()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
