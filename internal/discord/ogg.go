package discord

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const oggHeaderSize = 27

var errBadOggPage = errors.New("stream is not ogg")

// readOggPackets calls fn with every packet of an Ogg stream, in order. fn
// owns the slice it is given.
func readOggPackets(r io.Reader, fn func(packet []byte) error) error {
	br := bufio.NewReader(r)
	header := make([]byte, oggHeaderSize)
	var packet []byte

	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read ogg page: %w", err)
		}
		if !bytes.Equal(header[:4], []byte("OggS")) {
			return errBadOggPage
		}

		segments := make([]byte, header[26])
		if _, err := io.ReadFull(br, segments); err != nil {
			return fmt.Errorf("failed to read ogg segment table: %w", err)
		}

		for _, size := range segments {
			start := len(packet)
			packet = append(packet, make([]byte, size)...)
			if _, err := io.ReadFull(br, packet[start:]); err != nil {
				return fmt.Errorf("failed to read ogg segment: %w", err)
			}
			// a segment shorter than 255 bytes ends the packet
			if size < 255 {
				if err := fn(packet); err != nil {
					return err
				}
				packet = nil
			}
		}
	}
}

// isOpusHeader reports whether packet is one of the two Ogg Opus header
// packets rather than audio.
func isOpusHeader(packet []byte) bool {
	return bytes.HasPrefix(packet, []byte("OpusHead")) || bytes.HasPrefix(packet, []byte("OpusTags"))
}
