// Package version reports which escabot build is running.
package version

import "runtime/debug"

// Set at build time, e.g.
// -ldflags "-X escabot/internal/version.version=v0.3.0 -X escabot/internal/version.commit=abc1234".
var (
	version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var
	commit  = ""    //nolint:gochecknoglobals // ldflags requires package-level var
)

// String returns the release version and, when known, the short commit.
// Builds without ldflags fall back to the module version and VCS revision
// recorded by the Go toolchain.
func String() string {
	v, rev := version, commit
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		if rev == "" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					rev = s.Value
				}
			}
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev == "" {
		return v
	}
	return v + " (" + rev + ")"
}
