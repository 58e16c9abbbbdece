package wire

import "encoding/binary"

// HeaderSize is the fixed size of a packet header: u16 id, 1 pad byte, u32
// length.
const HeaderSize = 7

// Header is a decoded packet header.
type Header struct {
	ID     uint16
	Length uint32
}

// ParseHeader reads the 7-byte header from the front of data. If data is
// shorter than HeaderSize the missing bytes read as zero (permissive).
func ParseHeader(data []byte) Header {
	var buf [HeaderSize]byte
	copy(buf[:], data)

	return Header{
		ID:     binary.LittleEndian.Uint16(buf[0:2]),
		Length: binary.LittleEndian.Uint32(buf[3:7]),
	}
}

// RawPacket is one packet's header plus its undecoded payload bytes.
// Incomplete is set when the header's declared length exceeded the
// bytes actually remaining in the body: Payload is then whatever was
// available, not the full declared length, and callers must not treat
// it as a valid decode.
type RawPacket struct {
	Header     Header
	Payload    []byte
	Incomplete bool
}

// Split breaks an incoming HTTP body into its component packets. Each
// header is re-read from the slice to recover its id and length. A
// header whose declared length exceeds the remaining bytes is still
// emitted, flagged Incomplete, with Payload truncated to what's
// available; the next header is parsed at offset += 7 + length
// regardless, per spec §8 boundary behavior — since that offset can't
// exceed the body, this always ends the split.
func Split(body []byte) []RawPacket {
	var packets []RawPacket

	for len(body) > 0 {
		if len(body) < HeaderSize {
			break
		}

		header := ParseHeader(body)
		length := int(header.Length)
		end := HeaderSize + length
		incomplete := end > len(body)
		if incomplete {
			end = len(body)
		}

		packets = append(packets, RawPacket{
			Header:     header,
			Payload:    body[HeaderSize:end],
			Incomplete: incomplete,
		})

		body = body[end:]
	}

	return packets
}

// Frame wraps a payload with its header to produce an on-wire packet:
// u16 id, 1 pad byte, u32 length, then the payload.
func Frame(packetID uint16, payload []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(payload))
	var idBuf [2]byte
	binary.LittleEndian.PutUint16(idBuf[:], packetID)
	out = append(out, idBuf[:]...)
	out = append(out, 0) // padding byte
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	return out
}
