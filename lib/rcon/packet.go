// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Packet types. The protocol reuses the value 2 for the exec request,
// the auth response, and command responses; direction disambiguates.
const (
	// TypeAuth is a client authentication request.
	TypeAuth int32 = 3

	// TypeExecCommand is a client command request.
	TypeExecCommand int32 = 2

	// TypeAuthResponse is the server's answer to TypeAuth.
	TypeAuthResponse int32 = 2

	// TypeResponseValue is the type Minecraft and most Source servers
	// use for command output.
	TypeResponseValue int32 = 0
)

// AuthFailedID is the requestId a server sends in the auth response
// when the password is wrong (0xFFFFFFFF on the wire).
const AuthFailedID int32 = -1

const (
	// headerSize is the requestId and type fields.
	headerSize = 8

	// trailerSize is the payload NUL terminator plus the empty-string
	// NUL that ends every packet.
	trailerSize = 2

	// MinPacketLength is the smallest legal value of the length field:
	// a packet with an empty payload.
	MinPacketLength = headerSize + trailerSize

	// MaxPacketSize bounds the length field of inbound packets. A
	// larger value means the stream is desynchronized or hostile, and
	// reading it would allocate without limit.
	MaxPacketSize = 64 * 1024

	// MaxCommandLength is the longest command payload a server
	// accepts in one request.
	MaxCommandLength = 1446
)

// Packet is one RCON frame.
type Packet struct {
	RequestID int32
	Type      int32
	Payload   []byte
}

// Length returns the value of the packet's length field: the number of
// bytes after the field itself.
func (p Packet) Length() int32 {
	return int32(headerSize + len(p.Payload) + trailerSize)
}

// Encode serializes the packet to its wire form.
func (p Packet) Encode() []byte {
	buffer := make([]byte, 4+int(p.Length()))
	binary.LittleEndian.PutUint32(buffer[0:4], uint32(p.Length()))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(p.RequestID))
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(p.Type))
	copy(buffer[12:], p.Payload)
	// The two trailing bytes are already zero.
	return buffer
}

// WritePacket encodes the packet and writes it with a single Write.
func WritePacket(w io.Writer, p Packet) error {
	_, err := w.Write(p.Encode())
	return err
}

// ReadPacket reads exactly one packet from r. I/O failures (including
// io.EOF and io.ErrUnexpectedEOF for a stream that ends early) are
// returned wrapped so the caller can classify them. A frame that is
// structurally invalid is returned as a *ProtocolError.
func ReadPacket(r io.Reader) (Packet, error) {
	var lengthField [4]byte
	if _, err := io.ReadFull(r, lengthField[:]); err != nil {
		return Packet{}, fmt.Errorf("reading packet length: %w", err)
	}

	length := int32(binary.LittleEndian.Uint32(lengthField[:]))
	if length < MinPacketLength || length > MaxPacketSize {
		return Packet{}, &ProtocolError{
			Op:  "read",
			Err: fmt.Errorf("declared packet length %d outside [%d, %d]", length, MinPacketLength, MaxPacketSize),
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Packet{}, fmt.Errorf("reading %d-byte packet body: %w", length, err)
	}

	return decodeBody(body)
}

// Decode parses one complete wire frame, length field included. The
// frame must contain exactly the number of bytes the length declares.
func Decode(frame []byte) (Packet, error) {
	if len(frame) < 4 {
		return Packet{}, &ProtocolError{Op: "decode", Err: fmt.Errorf("frame of %d bytes has no length field", len(frame))}
	}
	length := int32(binary.LittleEndian.Uint32(frame[0:4]))
	if length < MinPacketLength || length > MaxPacketSize {
		return Packet{}, &ProtocolError{
			Op:  "decode",
			Err: fmt.Errorf("declared packet length %d outside [%d, %d]", length, MinPacketLength, MaxPacketSize),
		}
	}
	if int(length) != len(frame)-4 {
		return Packet{}, &ProtocolError{
			Op:  "decode",
			Err: fmt.Errorf("declared packet length %d, frame carries %d", length, len(frame)-4),
		}
	}
	return decodeBody(frame[4:])
}

// decodeBody parses the bytes that follow the length field.
func decodeBody(body []byte) (Packet, error) {
	if !bytes.HasSuffix(body, []byte{0, 0}) {
		return Packet{}, &ProtocolError{Op: "decode", Err: fmt.Errorf("packet is missing its two-byte NUL terminator")}
	}
	payload := body[headerSize : len(body)-trailerSize]
	return Packet{
		RequestID: int32(binary.LittleEndian.Uint32(body[0:4])),
		Type:      int32(binary.LittleEndian.Uint32(body[4:8])),
		Payload:   payload,
	}, nil
}
