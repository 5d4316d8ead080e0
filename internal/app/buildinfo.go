package app

import "fmt"

// Build information set with -ldflags "-X .../internal/app.BuildVersion=...".
var (
    BuildVersion = "0.0.0-dev"
    BuildCommit  = "unknown"
    BuildDate    = "unknown"
)

// VersionString describes the running binary for `pagetext version`.
func VersionString() string {
    return fmt.Sprintf("pagetext %s (commit %s, built %s)", BuildVersion, BuildCommit, BuildDate)
}
