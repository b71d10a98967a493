// Package version carries build metadata for the shoplog binaries.
//
// Set at link time:
//
//	go build -ldflags "-X github.com/rickgao/shoplog/internal/version.Version=0.3.0 \
//	                   -X github.com/rickgao/shoplog/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/shoplog/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/...
package version

import "runtime/debug"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "version (commit) built time".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent is sent by the upload client.
func UserAgent() string {
	return "shoplog/" + Version
}

// GoVersion reports the toolchain the binary was built with.
func GoVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}
