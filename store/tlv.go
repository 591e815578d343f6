package store

import (
	"encoding/binary"

	"github.com/drpcorg/rowbind/rowbind_errors"
)

// Item bodies are ToyTLV records: a type letter A..Z followed by the
// length, in one of three forms picked by body size.
//
//	tiny  '0'+len               bodies of 0..9 bytes, lowercase type only
//	short lowercase type, len   up to 255 bytes
//	long  uppercase type, u32le up to 2GB

const caseBit uint8 = 'a' - 'A'

// probeHeader returns the record type ('0' for tiny, '-' for garbage, 0
// when the header is incomplete) and the header and body lengths.
func probeHeader(data []byte) (lit byte, hdrlen, bodylen int) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	b := data[0]
	switch {
	case b >= '0' && b <= '9':
		return '0', 1, int(b - '0')
	case b >= 'a' && b <= 'z':
		if len(data) < 2 {
			return 0, 0, 0
		}
		return b - caseBit, 2, int(data[1])
	case b >= 'A' && b <= 'Z':
		if len(data) < 5 {
			return 0, 0, 0
		}
		bl := binary.LittleEndian.Uint32(data[1:5])
		if bl > 0x7fffffff {
			return '-', 0, 0
		}
		return b, 5, int(bl)
	}
	return '-', 0, 0
}

func appendHeader(into []byte, lit byte, bodylen int) []byte {
	big := lit &^ caseBit
	if big < 'A' || big > 'Z' {
		panic("TLV record type is A..Z")
	}
	switch {
	case bodylen < 10 && lit&caseBit != 0:
		return append(into, byte('0'+bodylen))
	case bodylen > 0xff:
		if bodylen > 0x7fffffff {
			panic("oversized TLV record")
		}
		into = append(into, big)
		return binary.LittleEndian.AppendUint32(into, uint32(bodylen))
	}
	return append(into, lit|caseBit, byte(bodylen))
}

// appendRecord appends one record; a lowercase lit allows the tiny form.
func appendRecord(into []byte, lit byte, body []byte) []byte {
	return append(appendHeader(into, lit, len(body)), body...)
}

// takeAny splits the first record off data. A tiny record reports lit
// '0'; callers that know the field order resolve it.
func takeAny(data []byte) (lit byte, body, rest []byte, err error) {
	lit, hdrlen, bodylen := probeHeader(data)
	switch {
	case lit == 0 || hdrlen+bodylen > len(data):
		return 0, nil, data, rowbind_errors.ErrBadRecord
	case lit == '-':
		return 0, nil, nil, rowbind_errors.ErrBadRecord
	}
	return lit, data[hdrlen : hdrlen+bodylen], data[hdrlen+bodylen:], nil
}
