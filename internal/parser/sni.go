// Package parser 从 TCP 负载中识别 TLS ClientHello 并取出 SNI 主机名
package parser

import (
	"encoding/binary"
	"errors"
)

var (
	ErrNotTLSHandshake  = errors.New("不是 TLS 握手消息")
	ErrNotClientHello   = errors.New("不是 ClientHello")
	ErrPayloadTooShort  = errors.New("payload 太短")
	ErrNoSNIExtension   = errors.New("没有 SNI 扩展")
	ErrInvalidSNIFormat = errors.New("SNI 格式无效")
)

const (
	recordHandshake      = 0x16
	handshakeClientHello = 0x01
	extServerName        = 0x0000
	nameTypeHostName     = 0x00

	recordHeaderLen = 5
	randomLen       = 32
)

// reader 大端序顺序读取，越界后所有读取都返回零值并记录错误
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.buf) {
		r.err = ErrPayloadTooShort
		return nil
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out
}

func (r *reader) u8() int {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (r *reader) u16() int {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int(binary.BigEndian.Uint16(b))
}

func (r *reader) u24() int {
	b := r.take(3)
	if b == nil {
		return 0
	}
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
}

// sub 取出 n 字节作为独立的 reader
func (r *reader) sub(n int) *reader {
	b := r.take(n)
	return &reader{buf: b, err: r.err}
}

// IsClientHello 快速判断负载是否以 TLS ClientHello 开头
func IsClientHello(payload []byte) bool {
	return len(payload) > recordHeaderLen &&
		payload[0] == recordHandshake &&
		payload[recordHeaderLen] == handshakeClientHello
}

// ServerName 从一个 TLS 记录中取出 SNI 主机名
// 负载必须从记录头开始，分片到多个 TCP 段的 ClientHello 按截断处理
func ServerName(payload []byte) (string, error) {
	if len(payload) <= recordHeaderLen {
		return "", ErrPayloadTooShort
	}
	if payload[0] != recordHandshake {
		return "", ErrNotTLSHandshake
	}

	rec := &reader{buf: payload[1:]}
	rec.take(2) // 记录层版本不检查
	body := rec.sub(rec.u16())
	if body.err != nil {
		return "", body.err
	}

	if body.u8() != handshakeClientHello {
		return "", ErrNotClientHello
	}
	hello := body.sub(body.u24())
	hello.take(2 + randomLen)
	hello.take(hello.u8())  // session id
	hello.take(hello.u16()) // cipher suites
	hello.take(hello.u8())  // compression methods
	if hello.err != nil {
		return "", hello.err
	}
	if len(hello.buf) == 0 {
		return "", ErrNoSNIExtension
	}

	exts := hello.sub(hello.u16())
	for exts.err == nil && len(exts.buf) >= 4 {
		typ := exts.u16()
		data := exts.sub(exts.u16())
		if data.err != nil {
			return "", data.err
		}
		if typ == extServerName {
			return parseServerNameList(data)
		}
	}
	if exts.err != nil {
		return "", exts.err
	}
	return "", ErrNoSNIExtension
}

func parseServerNameList(r *reader) (string, error) {
	list := r.sub(r.u16())
	if list.err != nil {
		return "", ErrInvalidSNIFormat
	}
	for len(list.buf) >= 3 {
		typ := list.u8()
		name := list.take(list.u16())
		if list.err != nil {
			return "", ErrInvalidSNIFormat
		}
		if typ == nameTypeHostName {
			if len(name) == 0 {
				return "", ErrInvalidSNIFormat
			}
			return string(name), nil
		}
	}
	return "", ErrNoSNIExtension
}
