package diagnose

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Linux capability 位
const (
	capNetAdmin = 12
	capNetRaw   = 13
)

// SystemInfo 系统信息
type SystemInfo struct {
	Kernel         string `json:"kernel"`
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	Hostname       string `json:"hostname"`
	UID            int    `json:"uid"`
	EUID           int    `json:"euid"`
	CapEff         string `json:"cap_eff,omitempty"`
	HasCapNetRaw   bool   `json:"has_cap_net_raw"`
	HasCapNetAdmin bool   `json:"has_cap_net_admin"`
}

// CollectSystemInfo 收集系统信息
func CollectSystemInfo() *SystemInfo {
	hostname, _ := os.Hostname()
	info := &SystemInfo{
		Kernel:   kernelVersion(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Hostname: hostname,
		UID:      os.Getuid(),
		EUID:     os.Geteuid(),
		CapEff:   readCapEff(),
	}
	if caps, ok := parseCapEff(info.CapEff); ok {
		info.HasCapNetRaw = caps&(1<<capNetRaw) != 0
		info.HasCapNetAdmin = caps&(1<<capNetAdmin) != 0
	}
	return info
}

// kernelVersion 读取 /proc/version 的第三列，非 Linux 返回 unknown
func kernelVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return "unknown"
	}
	parts := strings.Fields(string(data))
	if len(parts) >= 3 {
		return parts[2]
	}
	return "unknown"
}

// readCapEff 读取当前进程的有效 capabilities
func readCapEff() string {
	file, err := os.Open("/proc/self/status")
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "CapEff:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "CapEff:"))
		}
	}
	return ""
}

func parseCapEff(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
