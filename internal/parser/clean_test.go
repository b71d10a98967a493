package parser

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "empty",
			lines: nil,
			want:  []string{},
		},
		{
			name: "keeps marked lines in order",
			lines: []string{
				"[09:14:02] [Render thread/INFO]: [System] [CHAT] Owner: Troniq",
				"[09:14:02] [Render thread/INFO]: Reloading ResourceManager",
				"[09:14:03] [Render thread/INFO]: [System] [CHAT]   Stock: 5  ",
				"[09:14:03] [Render thread/INFO]: [CHAT] <someone> hello",
			},
			want: []string{"Owner: Troniq", "Stock: 5"},
		},
		{
			name:  "marker with nothing after it",
			lines: []string{"[Render thread/INFO]: [System] [CHAT]"},
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.lines, DefaultChatMarker)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClean_CustomMarker(t *testing.T) {
	got := Clean([]string{"[CHAT] Owner: a", "noise"}, "[CHAT]")
	if diff := cmp.Diff([]string{"Owner: a"}, got); diff != "" {
		t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare(t *testing.T) {
	cleaned := []string{"  Shop Information:", "Owner: a"}
	if got := Prepare(cleaned, ""); !cmp.Equal(got, cleaned) {
		t.Errorf("Prepare(cleaned) = %q, want unchanged", got)
	}

	raw := []string{"[x] [Render thread/INFO]: [System] [CHAT] Owner: a"}
	if got := Prepare(raw, ""); !cmp.Equal(got, []string{"Owner: a"}) {
		t.Errorf("Prepare(raw) = %q, want cleaned", got)
	}
}

func TestReadAll(t *testing.T) {
	const text = "Shop Information:\nOwner: Troniq\n"

	t.Run("plain", func(t *testing.T) {
		got, err := ReadAll(strings.NewReader(text), 0)
		if err != nil {
			t.Fatalf("ReadAll error: %v", err)
		}
		if got != text {
			t.Errorf("ReadAll = %q, want %q", got, text)
		}
	})

	t.Run("gzip", func(t *testing.T) {
		got, err := ReadAll(bytes.NewReader(gzipBytes(t, text)), 0)
		if err != nil {
			t.Fatalf("ReadAll error: %v", err)
		}
		if got != text {
			t.Errorf("ReadAll = %q, want %q", got, text)
		}
	})

	t.Run("empty", func(t *testing.T) {
		got, err := ReadAll(strings.NewReader(""), 0)
		if err != nil {
			t.Fatalf("ReadAll error: %v", err)
		}
		if got != "" {
			t.Errorf("ReadAll = %q, want empty", got)
		}
	})
}

func TestReadAll_Limit(t *testing.T) {
	text := strings.Repeat("Owner: Troniq\n", 1000)
	tests := []struct {
		name  string
		input []byte
		limit int64
		err   error
	}{
		{"plain under limit", []byte(text), int64(len(text)), nil},
		{"plain over limit", []byte(text), int64(len(text)) - 1, ErrTooLarge},
		{"gzip under limit", gzipBytes(t, text), int64(len(text)), nil},
		// Compresses to far less than the limit but expands past it.
		{"gzip expands past limit", gzipBytes(t, text), 1024, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadAll(bytes.NewReader(tt.input), tt.limit)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ReadAll error = %v, want %v", err, tt.err)
			}
			if tt.err == nil && got != text {
				t.Errorf("ReadAll returned %d bytes, want %d", len(got), len(text))
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log.gz")
	if err := os.WriteFile(path, gzipBytes(t, "Owner: a\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if got != "Owner: a\n" {
		t.Errorf("ReadFile = %q, want %q", got, "Owner: a\n")
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("ReadFile(missing) error = nil, want error")
	}
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}
