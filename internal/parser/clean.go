package parser

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultChatMarker precedes every chat line in the game client log.
const DefaultChatMarker = "[Render thread/INFO]: [System] [CHAT]"

// headerPrefix opens every shop information block.
const headerPrefix = "Shop Information:"

// Clean keeps the lines that carry marker, returning the text after the
// marker with surrounding whitespace trimmed. Order is preserved.
func Clean(lines []string, marker string) []string {
	if marker == "" {
		marker = DefaultChatMarker
	}

	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		_, after, found := strings.Cut(line, marker)
		if !found {
			continue
		}
		cleaned = append(cleaned, strings.TrimSpace(after))
	}
	return cleaned
}

// Prepare returns lines ready for the parser. Input whose first line
// already starts with the shop header is treated as cleaned and passed
// through; anything else goes through Clean.
func Prepare(lines []string, marker string) []string {
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), headerPrefix) {
		return lines
	}
	return Clean(lines, marker)
}

// SplitLines splits text on newlines. Carriage returns are left for the
// trimming done by Clean and the parser.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// gzipMagic is the two-byte gzip member header.
var gzipMagic = []byte{0x1f, 0x8b}

// ErrTooLarge is returned when a log exceeds the read limit after
// decompression.
var ErrTooLarge = errors.New("log exceeds size limit")

// ReadAll reads a log stream, transparently decompressing gzip input.
// A positive limit caps the decompressed size; larger input returns
// ErrTooLarge.
func ReadAll(r io.Reader, limit int64) (string, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("peek log: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("read log: %w (%d bytes)", ErrTooLarge, limit)
	}
	return string(data), nil
}

// ReadFile reads a .log or .log.gz file.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	return ReadAll(f, 0)
}
