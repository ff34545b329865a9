package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/dynamo"
)

const (
	OpFrame  byte = 0x01
	OpScreen byte = 0x02
	OpSpawn  byte = 0x10
)

const frameHeaderSize = 1 + 4 + 4 + 4

var ErrMalformed = errors.New("stream: malformed message")

type FrameHeader struct {
	Frame uint32
	Time  float32
	Count uint32
}

type SpawnRequest struct {
	X, Y, Radius float32
}

func appendFloat32(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func EncodeScreen(width, height float32) []byte {
	b := make([]byte, 0, 9)
	b = append(b, OpScreen)
	b = appendFloat32(b, width)
	return appendFloat32(b, height)
}

func DecodeScreen(msg []byte) (width, height float32, err error) {
	if len(msg) != 9 || msg[0] != OpScreen {
		return 0, 0, fmt.Errorf("%w: screen message of %d bytes", ErrMalformed, len(msg))
	}
	return readFloat32(msg[1:]), readFloat32(msg[5:]), nil
}

// AppendFrame encodes ps onto dst.
func AppendFrame(dst []byte, frame int, t float64, ps []dynamo.Particle) []byte {
	dst = append(dst, OpFrame)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(frame))
	dst = appendFloat32(dst, float32(t))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(ps)))
	for i := range ps {
		dst = appendFloat32(dst, float32(ps[i].Pos.X))
		dst = appendFloat32(dst, float32(ps[i].Pos.Y))
		dst = appendFloat32(dst, float32(ps[i].Radius))
	}
	return dst
}

// DecodeFrame returns the header and the x, y, radius triples.
func DecodeFrame(msg []byte) (FrameHeader, []float32, error) {
	var h FrameHeader
	if len(msg) < frameHeaderSize || msg[0] != OpFrame {
		return h, nil, fmt.Errorf("%w: frame header", ErrMalformed)
	}
	h.Frame = binary.LittleEndian.Uint32(msg[1:])
	h.Time = readFloat32(msg[5:])
	h.Count = binary.LittleEndian.Uint32(msg[9:])

	body := msg[frameHeaderSize:]
	if uint64(len(body)) != uint64(h.Count)*12 {
		return h, nil, fmt.Errorf("%w: %d particles in %d bytes", ErrMalformed, h.Count, len(body))
	}
	values := make([]float32, 3*h.Count)
	for i := range values {
		values[i] = readFloat32(body[4*i:])
	}
	return h, values, nil
}

func EncodeSpawn(r SpawnRequest) []byte {
	b := make([]byte, 0, 13)
	b = append(b, OpSpawn)
	b = appendFloat32(b, r.X)
	b = appendFloat32(b, r.Y)
	return appendFloat32(b, r.Radius)
}

func DecodeSpawn(msg []byte) (SpawnRequest, error) {
	if len(msg) != 13 || msg[0] != OpSpawn {
		return SpawnRequest{}, fmt.Errorf("%w: spawn message of %d bytes", ErrMalformed, len(msg))
	}
	return SpawnRequest{X: readFloat32(msg[1:]), Y: readFloat32(msg[5:]), Radius: readFloat32(msg[9:])}, nil
}
