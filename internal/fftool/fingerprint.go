package fftool

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"skipdetect/internal/services"
)

// Fingerprint samples the window [start, start+length) of the file's audio
// and returns the raw chromaprint blocks, one uint32 per BlockDuration
// seconds.
func (t *Tool) Fingerprint(ctx context.Context, path string, start, length float64) ([]uint32, error) {
	if length <= 0 {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "fingerprint",
			fmt.Sprintf("non-positive window length %.2f for %s", length, path), nil)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-accurate_seek",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", path,
		"-ac", "2",
		"-f", "chromaprint",
		"-fp_format", "raw",
		"pipe:1",
	}
	stdout, stderr, err := t.runFFmpeg(ctx, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "fingerprint",
			fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(stderr))), err)
	}

	blocks := decodeRawFingerprint(stdout)
	if len(blocks) == 0 {
		return nil, services.Wrap(services.ErrFingerprint, "fftool", "fingerprint",
			fmt.Sprintf("empty fingerprint for %s", path), nil)
	}
	return blocks, nil
}

// decodeRawFingerprint converts the muxer's little-endian uint32 stream into
// fingerprint blocks. A trailing partial block is dropped.
func decodeRawFingerprint(raw []byte) []uint32 {
	count := len(raw) / 4
	blocks := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		blocks = append(blocks, binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return blocks
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
