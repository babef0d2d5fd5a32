package diagnose

import (
	"fmt"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/nickproject/pktsniff/internal/capture"
)

// Options 诊断参数
type Options struct {
	Interface  string
	Expression string
	SnapLen    int
}

// probes 环境探测函数，测试时替换
type probes struct {
	version        func() string
	listInterfaces func() ([]string, error)
	compile        func(snapLen int, expr string) (int, error)
	open           func(iface string, snapLen int) error
	system         func() *SystemInfo
}

var defaultProbes = probes{
	version:        pcap.Version,
	listInterfaces: capture.ListInterfaces,
	compile: func(snapLen int, expr string) (int, error) {
		insns, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, expr)
		return len(insns), err
	},
	open: func(iface string, snapLen int) error {
		handle, err := pcap.OpenLive(iface, int32(snapLen), false, 100*time.Millisecond)
		if err != nil {
			return err
		}
		handle.Close()
		return nil
	},
	system: CollectSystemInfo,
}

// RunCaptureDiagnose 检查 libpcap、权限、网卡和过滤表达式
func RunCaptureDiagnose(opts Options) *Report {
	return defaultProbes.run(opts)
}

func (p probes) run(opts Options) *Report {
	if opts.SnapLen <= 0 {
		opts.SnapLen = 65535
	}

	report := NewReport()
	sys := p.system()
	report.System = sys

	// 1. libpcap
	report.AddCheck("libpcap", StatusPass, p.version())

	// 2. 权限
	switch {
	case sys.EUID == 0:
		report.AddCheck("permissions", StatusPass, "以 root 权限运行")
	case sys.HasCapNetRaw:
		report.AddCheck("permissions", StatusPass, "具有 CAP_NET_RAW")
	case sys.OS == "linux":
		report.AddCheck("permissions", StatusFail, "权限不足，需要 root 或 CAP_NET_RAW")
	default:
		report.AddCheck("permissions", StatusWarning, "非 root 用户，实时抓包可能需要 sudo")
	}

	// 3. 网卡列表
	names, err := p.listInterfaces()
	switch {
	case err != nil:
		report.AddCheckWithError("interfaces", StatusFail, "无法列出网卡", err)
	case len(names) == 0:
		report.AddCheck("interfaces", StatusWarning, "未发现可用网卡，可能是权限不足")
	default:
		report.AddCheckWithDetails("interfaces", StatusPass,
			fmt.Sprintf("发现 %d 个网卡", len(names)), names)
	}

	// 4. 指定网卡
	p.checkInterface(report, opts, names, err == nil)

	// 5. 过滤表达式
	if opts.Expression == "" {
		report.AddCheck("filter", StatusSkipped, "未设置过滤条件，抓取全部数据包")
	} else if n, err := p.compile(opts.SnapLen, opts.Expression); err != nil {
		report.AddCheckWithError("filter", StatusFail, "过滤表达式无法编译: "+opts.Expression, err)
	} else {
		report.AddCheckWithDetails("filter", StatusPass, opts.Expression,
			map[string]any{"instructions": n})
	}

	report.Summary = fmt.Sprintf("%d 项通过, %d 项警告, %d 项失败",
		report.Count(StatusPass), report.Count(StatusWarning), report.Count(StatusFail))
	return report
}

func (p probes) checkInterface(report *Report, opts Options, names []string, listed bool) {
	if opts.Interface == "" {
		report.AddCheck("interface", StatusSkipped, "未指定网卡")
		return
	}
	if listed && !contains(names, opts.Interface) {
		report.AddCheck("interface", StatusFail, "网卡不存在: "+opts.Interface)
		return
	}
	if err := p.open(opts.Interface, opts.SnapLen); err != nil {
		report.AddCheckWithError("interface", StatusFail, "无法打开网卡: "+opts.Interface, err)
		return
	}
	report.AddCheck("interface", StatusPass, "网卡可以打开: "+opts.Interface)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
