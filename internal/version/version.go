package version

// Version is the version of the realtime service and CLI.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-realtime/internal/version.Version=1.2.3"
// The value "main" marks a development build.
var Version = "main"

// GetVersion returns the current build version.
func GetVersion() string {
	return Version
}
