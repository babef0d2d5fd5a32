package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func port(p uint16) *uint16 { return &p }

func mustSpec(t *testing.T, opts Options) *Spec {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNewDefaults(t *testing.T) {
	s := mustSpec(t, Options{})
	assert.Equal(t, 1, s.Count())
	assert.True(t, s.IsEmpty())
	assert.True(t, s.ListInterfaces())

	_, ok := s.SrcPort()
	assert.False(t, ok)
}

func TestNewRejectsPortWithoutTransport(t *testing.T) {
	_, err := New(Options{Protocols: []Protocol{ProtoICMPv4}, DstPort: port(80)})
	assert.ErrorIs(t, err, ErrPortWithoutProtocol)

	_, err = New(Options{SrcPort: port(53)})
	assert.ErrorIs(t, err, ErrPortWithoutProtocol)

	_, err = New(Options{Protocols: []Protocol{ProtoUDP}, SrcPort: port(53)})
	assert.NoError(t, err)
}

func TestNewRejectsNegativeCount(t *testing.T) {
	_, err := New(Options{Count: -1})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestNewDeduplicatesProtocols(t *testing.T) {
	s := mustSpec(t, Options{Protocols: []Protocol{ProtoTCP, ProtoUDP, ProtoTCP}})
	assert.Equal(t, []Protocol{ProtoTCP, ProtoUDP}, s.Protocols())
	assert.True(t, s.Has(ProtoUDP))
	assert.False(t, s.Has(ProtoMLD))
}

func TestSpecCopiesPorts(t *testing.T) {
	p := port(80)
	s := mustSpec(t, Options{Protocols: []Protocol{ProtoTCP}, DstPort: p})
	*p = 8080

	got, ok := s.DstPort()
	require.True(t, ok)
	assert.Equal(t, uint16(80), got)
}

func TestListInterfacesMode(t *testing.T) {
	assert.False(t, mustSpec(t, Options{Interface: "eth0"}).ListInterfaces())
	assert.False(t, mustSpec(t, Options{Protocols: []Protocol{ProtoARP}}).ListInterfaces())
}

func TestProtocolString(t *testing.T) {
	assert.Equal(t, "ICMPv4", ProtoICMPv4.String())
	assert.Equal(t, "MLD", ProtoMLD.String())
	assert.Equal(t, "Protocol(42)", Protocol(42).String())
	assert.True(t, ProtoUDP.IsTransport())
	assert.False(t, ProtoNDP.IsTransport())
}
