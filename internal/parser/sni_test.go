package parser

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u16(v int) []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(v))
}

func ext(typ int, data []byte) []byte {
	out := append(u16(typ), u16(len(data))...)
	return append(out, data...)
}

func sniExt(host string) []byte {
	entry := append([]byte{nameTypeHostName}, u16(len(host))...)
	entry = append(entry, host...)
	return ext(extServerName, append(u16(len(entry)), entry...))
}

// clientHello 构造一个最小的 TLS 记录
func clientHello(exts ...[]byte) []byte {
	var extBytes []byte
	for _, e := range exts {
		extBytes = append(extBytes, e...)
	}

	// version, random, 空 session id, 一个 cipher suite, 一个压缩方法
	body := []byte{0x03, 0x03}
	body = append(body, make([]byte, 32)...)
	body = append(body, 0x00)
	body = append(body, u16(2)...)
	body = append(body, 0x13, 0x01)
	body = append(body, 0x01, 0x00)
	body = append(body, u16(len(extBytes))...)
	body = append(body, extBytes...)

	hs := []byte{handshakeClientHello, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	hs = append(hs, body...)

	rec := []byte{recordHandshake, 0x03, 0x01}
	rec = append(rec, u16(len(hs))...)
	return append(rec, hs...)
}

func TestServerName(t *testing.T) {
	payload := clientHello(ext(0x000a, []byte{0x00, 0x02, 0x00, 0x1d}), sniExt("example.com"))
	require.True(t, IsClientHello(payload))

	name, err := ServerName(payload)
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)
}

func TestServerNameWithTrailingBytes(t *testing.T) {
	payload := append(clientHello(sniExt("api.example.org")), 0x17, 0x03, 0x03)
	name, err := ServerName(payload)
	require.NoError(t, err)
	assert.Equal(t, "api.example.org", name)
}

func TestServerNameErrors(t *testing.T) {
	full := clientHello(sniExt("example.com"))

	_, err := ServerName([]byte{0x16, 0x03})
	assert.ErrorIs(t, err, ErrPayloadTooShort)

	_, err = ServerName([]byte("GET / HTTP/1.1\r\n"))
	assert.ErrorIs(t, err, ErrNotTLSHandshake)

	serverHello := append([]byte(nil), full...)
	serverHello[5] = 0x02
	_, err = ServerName(serverHello)
	assert.ErrorIs(t, err, ErrNotClientHello)
	assert.False(t, IsClientHello(serverHello))

	_, err = ServerName(full[:len(full)-4])
	assert.ErrorIs(t, err, ErrPayloadTooShort)

	_, err = ServerName(clientHello(ext(0x000a, []byte{0x00, 0x00})))
	assert.ErrorIs(t, err, ErrNoSNIExtension)

	_, err = ServerName(clientHello(ext(extServerName, []byte{0x00})))
	assert.ErrorIs(t, err, ErrInvalidSNIFormat)
}
