// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/you/onthisday/internal/version.Version=v1.2.0" ./cmd/onthisday
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String formats the metadata on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildTime + ")"
}
