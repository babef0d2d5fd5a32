package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
)

// packetReader pcapgo.Reader 与 pcapgo.NgReader 的公共部分
type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// fileCapturer 从 pcap/pcapng 文件回放帧，BPF 表达式在进程内执行
type fileCapturer struct {
	cfg      CaptureConfig
	file     *os.File
	reader   packetReader
	bpf      *pcap.BPF
	stop     chan struct{}
	stopOnce sync.Once
}

func newFileCapturer(cfg CaptureConfig) (*fileCapturer, error) {
	f, err := os.Open(cfg.ReadFile)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}

	r, err := openReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("解析 %q 失败: %w", cfg.ReadFile, err)
	}
	return &fileCapturer{
		cfg:    cfg,
		file:   f,
		reader: r,
		stop:   make(chan struct{}),
	}, nil
}

// openReader 先按 pcap 解析，失败后回退到 pcapng
func openReader(f *os.File) (packetReader, error) {
	r, err := pcapgo.NewReader(f)
	if err == nil {
		return r, nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	ng, ngErr := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if ngErr != nil {
		return nil, err
	}
	return ng, nil
}

func (c *fileCapturer) SetFilter(expr string) error {
	if expr == "" {
		return nil
	}
	bpf, err := pcap.NewBPF(c.reader.LinkType(), c.cfg.snapLen(), expr)
	if err != nil {
		return fmt.Errorf("编译 BPF 过滤 %q 失败: %w", expr, err)
	}
	c.bpf = bpf
	return nil
}

func (c *fileCapturer) Start(ctx context.Context, handler FrameHandler) error {
	linkType := c.reader.LinkType()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		default:
		}

		data, ci, err := c.reader.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("读取数据包失败: %w", err)
		}
		if c.bpf != nil && !c.bpf.Matches(ci, data) {
			continue
		}

		frame := Frame{LinkType: linkType, Data: data, Timestamp: ci.Timestamp}
		if err := handler(frame); err != nil {
			return err
		}
	}
}

func (c *fileCapturer) Stop() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *fileCapturer) Close() error {
	return c.file.Close()
}

func (c *fileCapturer) Capabilities() Capabilities {
	return Capabilities{
		Live:              false,
		SupportsBPFFilter: true,
	}
}
