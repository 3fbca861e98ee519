package discord

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oggPage builds one page carrying the given segment sizes, filled with fill.
func oggPage(fill byte, sizes ...int) []byte {
	var b bytes.Buffer
	b.WriteString("OggS")
	b.WriteByte(0) // version
	b.WriteByte(0) // header type
	binary.Write(&b, binary.LittleEndian, uint64(0))
	binary.Write(&b, binary.LittleEndian, uint32(1))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.WriteByte(byte(len(sizes)))
	for _, size := range sizes {
		b.WriteByte(byte(size))
	}
	for _, size := range sizes {
		b.Write(bytes.Repeat([]byte{fill}, size))
	}
	return b.Bytes()
}

func TestReadOggPackets(t *testing.T) {
	t.Run("packets across segments and pages", func(t *testing.T) {
		var stream bytes.Buffer
		stream.Write(oggPage('a', 10, 20))
		// 255 continues the packet onto the next page
		stream.Write(oggPage('b', 255))
		stream.Write(oggPage('b', 5))

		var sizes []int
		err := readOggPackets(&stream, func(packet []byte) error {
			sizes = append(sizes, len(packet))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{10, 20, 260}, sizes)
	})

	t.Run("rejects other formats", func(t *testing.T) {
		err := readOggPackets(bytes.NewReader(bytes.Repeat([]byte("RIFF"), 10)), func([]byte) error { return nil })
		assert.ErrorIs(t, err, errBadOggPage)
	})

	t.Run("truncated page", func(t *testing.T) {
		page := oggPage('c', 40)
		err := readOggPackets(bytes.NewReader(page[:len(page)-10]), func([]byte) error { return nil })
		assert.Error(t, err)
	})

	t.Run("callback error stops reading", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := readOggPackets(bytes.NewReader(oggPage('d', 1, 1, 1)), func([]byte) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("empty stream", func(t *testing.T) {
		assert.NoError(t, readOggPackets(bytes.NewReader(nil), func([]byte) error { return nil }))
	})
}

func TestIsOpusHeader(t *testing.T) {
	assert.True(t, isOpusHeader([]byte("OpusHead\x01\x02")))
	assert.True(t, isOpusHeader([]byte("OpusTags vendor")))
	assert.False(t, isOpusHeader([]byte{0xfc, 0xff, 0xfe}))
}
