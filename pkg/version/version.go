package version

import "fmt"

// Version and CommitHash are set at build time with -ldflags. Defaults are
// useful for local development.
var (
	CommitHash string = "unknown"
	// Variant indicates the build variant, printed by --version for debugging.
	Variant string = "unknown"
	Version string = "dev"
)

// Describe formats the version banner printed by --version.
func Describe() string {
	return fmt.Sprintf("memoryd %s (commit %s, variant %s)", Version, CommitHash, Variant)
}
