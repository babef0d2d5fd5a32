package capture

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket/pcap"
)

type pcapCapturer struct {
	cfg      CaptureConfig
	handle   *pcap.Handle
	stop     chan struct{}
	stopOnce sync.Once
}

func newPcapCapturer(cfg CaptureConfig) (*pcapCapturer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	handle, err := pcap.OpenLive(cfg.Interface, int32(cfg.snapLen()), cfg.Promiscuous, timeout)
	if err != nil {
		return nil, fmt.Errorf("打开网卡 %q 失败: %w", cfg.Interface, err)
	}
	return &pcapCapturer{
		cfg:    cfg,
		handle: handle,
		stop:   make(chan struct{}),
	}, nil
}

func (c *pcapCapturer) SetFilter(expr string) error {
	if expr == "" {
		return nil
	}
	if err := c.handle.SetBPFFilter(expr); err != nil {
		return fmt.Errorf("设置 BPF 过滤 %q 失败: %w", expr, err)
	}
	return nil
}

func (c *pcapCapturer) Start(ctx context.Context, handler FrameHandler) error {
	linkType := c.handle.LinkType()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		default:
		}

		data, ci, err := c.handle.ReadPacketData()
		switch {
		case err == pcap.NextErrorTimeoutExpired:
			continue
		case err == io.EOF:
			return nil
		case err != nil:
			return fmt.Errorf("读取数据包失败: %w", err)
		}

		frame := Frame{LinkType: linkType, Data: data, Timestamp: ci.Timestamp}
		if err := handler(frame); err != nil {
			return err
		}
	}
}

func (c *pcapCapturer) Stop() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *pcapCapturer) Close() error {
	c.handle.Close()
	return nil
}

func (c *pcapCapturer) Capabilities() Capabilities {
	return Capabilities{
		Live:              true,
		SupportsBPFFilter: true,
	}
}
