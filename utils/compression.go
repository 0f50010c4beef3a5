package utils

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// CompressText gzips text for cache storage. Small payloads are not worth
// the header overhead and are stored as-is with a marker byte.
func CompressText(text string) ([]byte, error) {
	data := []byte(text)
	if len(data) < 500 {
		return append([]byte{0}, data...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(1)
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to gzip writer: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressText reverses CompressText.
func DecompressText(stored []byte) (string, error) {
	if len(stored) == 0 {
		return "", nil
	}

	marker, data := stored[0], stored[1:]
	if marker == 0 {
		return string(data), nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read from gzip reader: %w", err)
	}
	return string(out), nil
}
