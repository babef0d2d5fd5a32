package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nickproject/pktsniff/internal/capture"
	"github.com/nickproject/pktsniff/internal/config"
	"github.com/nickproject/pktsniff/internal/diagnose"
	"github.com/nickproject/pktsniff/internal/export"
	"github.com/nickproject/pktsniff/internal/filter"
	"github.com/nickproject/pktsniff/internal/logger"
	"github.com/nickproject/pktsniff/internal/render"
	"github.com/nickproject/pktsniff/internal/session"
)

// protocolFlags 协议开关与标志名的对应关系，顺序决定表达式中子句的顺序
var protocolFlags = []struct {
	name  string
	short string
	proto filter.Protocol
	usage string
}{
	{"tcp", "t", filter.ProtoTCP, "抓取 TCP"},
	{"udp", "u", filter.ProtoUDP, "抓取 UDP"},
	{"icmp4", "", filter.ProtoICMPv4, "抓取 ICMPv4"},
	{"icmp6", "", filter.ProtoICMPv6, "抓取 ICMPv6"},
	{"arp", "", filter.ProtoARP, "抓取 ARP"},
	{"ndp", "", filter.ProtoNDP, "抓取 NDP (ICMPv6 邻居发现)"},
	{"igmp", "", filter.ProtoIGMP, "抓取 IGMP"},
	{"mld", "", filter.ProtoMLD, "抓取 MLD (ICMPv6 组播监听)"},
}

// options 命令行上的一次会话参数，不进入配置文件
type options struct {
	cfgFile  string
	diagnose bool
	iface    string
	count    int
	port     uint16
	srcPort  uint16
	dstPort  uint16
}

func newRootCmd() *cobra.Command {
	var opts options
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pktsniff",
		Short: "命令行抓包工具",
		Long: `pktsniff 按协议和端口抓取数据包，逐个输出摘要和十六进制转储。

不指定网卡、文件、协议和端口时列出可用网卡。

示例:
  pktsniff                          列出网卡
  pktsniff -i eth0 -t -p 443 -n 5   抓取 5 个 443 端口的 TCP 包
  pktsniff -i eth0 --ndp --mld      抓取邻居发现和组播监听报文
  pktsniff -r dump.pcap -u -n 10    从文件读取前 10 个 UDP 包

诊断模式:
  --diagnose    检查 libpcap、权限、网卡和过滤表达式，输出 JSON 报告`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd, v, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "配置文件路径")
	addFilterFlags(flags, &opts)

	// 抓包选项
	flags.StringP("read", "r", "", "从 pcap/pcapng 文件读取")
	flags.IntP("snaplen", "s", 65535, "单个数据包的最大抓取长度")
	flags.Bool("no-promisc", false, "不开启混杂模式")

	// 输出选项
	flags.StringP("output", "o", "", "会话结束后导出摘要的文件路径")
	flags.String("format", "json", "导出格式 (json|csv)")
	flags.Bool("no-color", false, "禁用彩色输出")

	// 日志选项
	flags.String("log-file", "", "日志文件路径")
	flags.String("log-level", "warn", "日志级别 (debug|info|warn|error)")

	// 诊断选项
	flags.BoolVar(&opts.diagnose, "diagnose", false, "运行抓包环境诊断")

	bindFlags(v, flags)
	return cmd
}

// addFilterFlags 过滤选项
func addFilterFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.iface, "interface", "i", "", "网卡名称")
	for _, pf := range protocolFlags {
		flags.BoolP(pf.name, pf.short, false, pf.usage)
	}
	flags.Uint16VarP(&opts.port, "port", "p", 0, "源端口和目的端口")
	flags.Uint16Var(&opts.srcPort, "port-source", 0, "源端口")
	flags.Uint16Var(&opts.dstPort, "port-destination", 0, "目的端口")
	flags.IntVarP(&opts.count, "count", "n", 1, "抓取的数据包数量")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	_ = v.BindPFlag("capture.read_file", flags.Lookup("read"))
	_ = v.BindPFlag("capture.snaplen", flags.Lookup("snaplen"))
	_ = v.BindPFlag("capture.no_promisc", flags.Lookup("no-promisc"))
	_ = v.BindPFlag("output.file", flags.Lookup("output"))
	_ = v.BindPFlag("output.format", flags.Lookup("format"))
	_ = v.BindPFlag("output.no_color", flags.Lookup("no-color"))
	_ = v.BindPFlag("logging.file", flags.Lookup("log-file"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
}

// buildSpec 把命令行标志转换为过滤条件
// 只有出现在命令行上的端口才算设置；-p 先生效，--port-source/--port-destination 覆盖对应方向
func buildSpec(flags *pflag.FlagSet, opts *options) (*filter.Spec, error) {
	if opts.count < 1 {
		return nil, filter.ErrInvalidCount
	}

	fo := filter.Options{Count: opts.count, Interface: opts.iface}
	for _, pf := range protocolFlags {
		on, err := flags.GetBool(pf.name)
		if err != nil {
			return nil, err
		}
		if on {
			fo.Protocols = append(fo.Protocols, pf.proto)
		}
	}

	if flags.Changed("port") {
		src, dst := opts.port, opts.port
		fo.SrcPort, fo.DstPort = &src, &dst
	}
	if flags.Changed("port-source") {
		src := opts.srcPort
		fo.SrcPort = &src
	}
	if flags.Changed("port-destination") {
		dst := opts.dstPort
		fo.DstPort = &dst
	}
	return filter.New(fo)
}

// runMain 主入口，根据参数决定运行模式
func runMain(cmd *cobra.Command, v *viper.Viper, opts *options) error {
	spec, err := buildSpec(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v, opts.cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	if opts.diagnose {
		return runDiagnose(cmd.OutOrStdout(), spec, cfg)
	}
	if spec.ListInterfaces() && cfg.Capture.ReadFile == "" {
		return listInterfaces(cmd.OutOrStdout())
	}
	if spec.Interface() == "" && cfg.Capture.ReadFile == "" {
		return config.ErrInterfaceRequired
	}
	return runCapture(cmd.OutOrStdout(), spec, cfg)
}

// listInterfaces 每行输出一个网卡名
func listInterfaces(w io.Writer) error {
	names, err := capture.ListInterfaces()
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// runDiagnose 按当前参数检查抓包环境
func runDiagnose(w io.Writer, spec *filter.Spec, cfg *config.Config) error {
	report := diagnose.RunCaptureDiagnose(diagnose.Options{
		Interface:  spec.Interface(),
		Expression: filter.Expression(spec),
		SnapLen:    cfg.Capture.SnapLen,
	})
	return report.WriteJSON(w)
}

func runCapture(w io.Writer, spec *filter.Spec, cfg *config.Config) error {
	// 导出格式在抓包前校验，避免抓完才发现参数错误
	var format export.ExportFormat
	if cfg.Output.File != "" {
		f, err := export.ParseFormat(cfg.Output.Format)
		if err != nil {
			return err
		}
		format = f
	}

	live := cfg.Capture.ReadFile == ""
	if live {
		checkPermissions()
	}

	capturer, err := capture.New(capture.CaptureConfig{
		Interface:   spec.Interface(),
		ReadFile:    cfg.Capture.ReadFile,
		SnapLen:     cfg.Capture.SnapLen,
		Promiscuous: !cfg.Capture.NoPromisc,
		Timeout:     cfg.Capture.Timeout,
	})
	if err != nil {
		return fmt.Errorf("创建抓包器失败: %w", err)
	}

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 处理信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info("收到退出信号")
			cancel()
		case <-ctx.Done():
		}
	}()

	emitters := []session.Emitter{render.NewPrinter(w, !cfg.Output.NoColor)}
	var collector *export.Collector
	if cfg.Output.File != "" {
		collector = export.NewCollector()
		emitters = append(emitters, collector)
	}

	sess := session.New(spec, capturer, emitters...)
	if err := sess.Run(ctx); err != nil {
		return err
	}

	if collector == nil {
		return nil
	}
	report := &export.Report{
		Timestamp:  time.Now(),
		Duration:   sess.Duration(),
		Interface:  spec.Interface(),
		Expression: sess.Expression(),
		Stats:      sess.Stats(),
		Records:    collector.Records(),
	}
	if err := export.Export(report, cfg.Output.File, format); err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}
	logger.Info("数据已导出", "file", cfg.Output.File, "records", len(report.Records))
	return nil
}

// checkPermissions 实时抓包通常需要特权，这里只提示，真正的失败由 pcap 报告
func checkPermissions() {
	if os.Geteuid() == 0 {
		return
	}
	switch runtime.GOOS {
	case "linux":
		logger.Warn("非 root 用户，实时抓包需要 CAP_NET_RAW 能力")
	case "darwin":
		if _, err := os.Stat("/dev/bpf0"); os.IsPermission(err) {
			logger.Warn("需要 sudo 权限或加入 access_bpf 组")
		}
	}
}
