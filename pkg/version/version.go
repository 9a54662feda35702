package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/bugdash/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"

// String returns the version line printed by --version, including the VCS
// revision when the binary was built from a checkout.
func String() string {
	rev := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				rev = s.Value[:7]
			}
		}
	}
	if rev == "" {
		return fmt.Sprintf("bugdash %s", Version)
	}
	return fmt.Sprintf("bugdash %s (%s)", Version, rev)
}
