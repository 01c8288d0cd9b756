// Package compression reads and writes zstd-compressed inventory files.
// Files ending in .zst are compressed; everything else passes through.
package compression

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Suffix marks a zstd-compressed file.
const Suffix = ".zst"

var (
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
)

// IsCompressed reports whether path names a zstd file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

// BaseName strips the compression suffix so callers can detect the
// underlying format from the remaining extension.
func BaseName(path string) string {
	return strings.TrimSuffix(path, Suffix)
}

// Decompress decodes a zstd frame.
func Decompress(data []byte) ([]byte, error) {
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Compress encodes data as a single zstd frame.
func Compress(data []byte) ([]byte, error) {
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// ReadFile reads path, decompressing it when it ends in .zst.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return data, nil
	}
	return Decompress(data)
}

// WriteFile writes data to path, compressing it when path ends in .zst.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if IsCompressed(path) {
		compressed, err := Compress(data)
		if err != nil {
			return err
		}
		data = compressed
	}
	return os.WriteFile(path, data, perm)
}
