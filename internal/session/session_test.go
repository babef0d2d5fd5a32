package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickproject/pktsniff/internal/capture"
	"github.com/nickproject/pktsniff/internal/decode"
	"github.com/nickproject/pktsniff/internal/filter"
)

// fakeCapturer 按顺序回放预置的帧，行为与真实抓包器一致：
// Stop 之后不再回调，handler 出错立即返回
type fakeCapturer struct {
	frames    []capture.Frame
	noBPF     bool
	filter    string
	delivered int
	stopped   bool
	closed    bool
	stopErr   error
	closeErr  error
}

func (c *fakeCapturer) SetFilter(expr string) error {
	c.filter = expr
	return nil
}

func (c *fakeCapturer) Start(ctx context.Context, handler capture.FrameHandler) error {
	for _, f := range c.frames {
		if ctx.Err() != nil || c.stopped {
			return nil
		}
		c.delivered++
		if err := handler(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeCapturer) Stop() error {
	c.stopped = true
	return c.stopErr
}

func (c *fakeCapturer) Close() error {
	c.closed = true
	return c.closeErr
}

func (c *fakeCapturer) Capabilities() capture.Capabilities {
	return capture.Capabilities{SupportsBPFFilter: !c.noBPF}
}

type recorder struct {
	summaries []*decode.Summary
	err       error
}

func (r *recorder) Emit(s *decode.Summary) error {
	if r.err != nil {
		return r.err
	}
	r.summaries = append(r.summaries, s)
	return nil
}

var (
	srcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, ls...))
	return buf.Bytes()
}

func udpFrame(t *testing.T, srcPort uint16) capture.Frame {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: net.IPv4(10, 0, 0, 1).To4(), DstIP: net.IPv4(10, 0, 0, 2).To4()}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: 53}
	return capture.Frame{
		LinkType:  layers.LinkTypeEthernet,
		Data:      serialize(t, eth, ip, udp, gopacket.Payload("q")),
		Timestamp: time.Unix(1700000000, 0),
	}
}

func ndpFrame(t *testing.T) capture.Frame {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv6}
	ip := &layers.IPv6{Version: 6, HopLimit: 255, NextHeader: layers.IPProtocolICMPv6, SrcIP: net.ParseIP("fe80::1"), DstIP: net.ParseIP("ff02::1")}
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborSolicitation, 0)}
	return capture.Frame{
		LinkType:  layers.LinkTypeEthernet,
		Data:      serialize(t, eth, ip, icmp, gopacket.Payload(make([]byte, 20))),
		Timestamp: time.Unix(1700000001, 0),
	}
}

func newSpec(t *testing.T, opts filter.Options) *filter.Spec {
	t.Helper()
	spec, err := filter.New(opts)
	require.NoError(t, err)
	return spec
}

func ports(rs []*decode.Summary) []uint16 {
	out := make([]uint16, 0, len(rs))
	for _, s := range rs {
		out = append(out, *s.SrcPort)
	}
	return out
}

func TestRunStopsAfterCount(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 1001), udpFrame(t, 1002), udpFrame(t, 1003)}}
	rec := &recorder{}
	spec := newSpec(t, filter.Options{Protocols: []filter.Protocol{filter.ProtoUDP}, Count: 2})

	s := New(spec, fc, rec)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []uint16{1001, 1002}, ports(rec.summaries))
	assert.Equal(t, 2, fc.delivered)
	assert.Equal(t, 2, s.Matched())
	assert.True(t, fc.stopped)
	assert.True(t, fc.closed)
}

func TestRunDefaultCountIsOne(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 1001), udpFrame(t, 1002)}}
	rec := &recorder{}

	require.NoError(t, New(newSpec(t, filter.Options{}), fc, rec).Run(context.Background()))
	assert.Len(t, rec.summaries, 1)
}

func TestRunFilteredFramesDoNotCount(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{ndpFrame(t), udpFrame(t, 2001), ndpFrame(t), udpFrame(t, 2002)}}
	rec := &recorder{}
	spec := newSpec(t, filter.Options{Protocols: []filter.Protocol{filter.ProtoUDP, filter.ProtoMLD}, Count: 2})

	s := New(spec, fc, rec)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []uint16{2001, 2002}, ports(rec.summaries))
	assert.Equal(t, 4, fc.delivered)

	snap := s.Stats()
	assert.Equal(t, uint64(4), snap.Seen)
	assert.Equal(t, uint64(2), snap.Emitted)
	assert.Equal(t, uint64(2), snap.Filtered)
	require.Len(t, snap.Protocols, 2)
	assert.Equal(t, "NDP", snap.Protocols[0].Protocol)
	assert.Equal(t, uint64(2), snap.Protocols[0].Filtered)
}

func TestRunSourceExhaustedBeforeCount(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 3001)}}
	rec := &recorder{}
	spec := newSpec(t, filter.Options{Count: 5})

	require.NoError(t, New(spec, fc, rec).Run(context.Background()))
	assert.Len(t, rec.summaries, 1)
	assert.True(t, fc.closed)
}

func TestRunAbortsOnUnsupportedLinkType(t *testing.T) {
	raw := udpFrame(t, 4001)
	raw.LinkType = layers.LinkTypeRaw
	fc := &fakeCapturer{frames: []capture.Frame{raw, udpFrame(t, 4002)}}
	rec := &recorder{}

	err := New(newSpec(t, filter.Options{Count: 2}), fc, rec).Run(context.Background())

	var linkErr *decode.ErrUnsupportedLinkType
	require.ErrorAs(t, err, &linkErr)
	assert.Empty(t, rec.summaries)
	assert.Equal(t, 1, fc.delivered)
	assert.True(t, fc.closed)
}

func TestRunPassesExpressionToCapturer(t *testing.T) {
	fc := &fakeCapturer{}
	src := uint16(53)
	spec := newSpec(t, filter.Options{Protocols: []filter.Protocol{filter.ProtoUDP, filter.ProtoNDP}, SrcPort: &src})

	s := New(spec, fc)
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, s.Expression(), fc.filter)
	assert.Equal(t, filter.Expression(spec), fc.filter)
}

func TestRunSkipsFilterWithoutBPFSupport(t *testing.T) {
	fc := &fakeCapturer{noBPF: true, frames: []capture.Frame{udpFrame(t, 9001)}}
	spec := newSpec(t, filter.Options{Protocols: []filter.Protocol{filter.ProtoUDP}})

	require.NoError(t, New(spec, fc, &recorder{}).Run(context.Background()))
	assert.Empty(t, fc.filter)
}

func TestRunFansOutToAllEmitters(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 5001), udpFrame(t, 5002)}}
	a, b := &recorder{}, &recorder{}

	require.NoError(t, New(newSpec(t, filter.Options{Count: 2}), fc, a, b).Run(context.Background()))
	assert.Equal(t, ports(a.summaries), ports(b.summaries))
	assert.Len(t, b.summaries, 2)
}

func TestRunReturnsEmitError(t *testing.T) {
	boom := errors.New("stdout closed")
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 6001)}}

	err := New(newSpec(t, filter.Options{}), fc, &recorder{err: boom}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, fc.closed)
}

func TestRunCombinesTeardownErrors(t *testing.T) {
	closeErr := errors.New("close failed")
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 7001)}, closeErr: closeErr}

	err := New(newSpec(t, filter.Options{}), fc, &recorder{}).Run(context.Background())
	assert.ErrorIs(t, err, closeErr)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	fc := &fakeCapturer{frames: []capture.Frame{udpFrame(t, 8001)}}
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(newSpec(t, filter.Options{}), fc, rec)
	require.NoError(t, s.Run(ctx))
	assert.Empty(t, rec.summaries)
	assert.Equal(t, 0, fc.delivered)
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}
