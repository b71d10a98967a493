package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old, oldCommit, oldBuilt := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = old, oldCommit, oldBuilt }()

	Version, Commit, BuildTime = "1.2.0", "abc123", "2024-11-29T12:00:00Z"
	want := "1.2.0 (abc123) built 2024-11-29T12:00:00Z"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := UserAgent(); got != "shoplog/1.2.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "shoplog/1.2.0")
	}
}

func TestGoVersion(t *testing.T) {
	if got := GoVersion(); !strings.HasPrefix(got, "go") {
		t.Errorf("GoVersion() = %q, want go prefix", got)
	}
}
