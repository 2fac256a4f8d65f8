package build

// Stamped at link time:
//
//	-ldflags "-X github.com/rohmanhakim/nps-explorer/internal/build.Version=1.2.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

const AppName = "nps-explorer"

// FullVersion is "Version+Commit", or just Version when no commit was stamped.
func FullVersion() string {
	if Commit == "" || Commit == "none" {
		return Version
	}
	return Version + "+" + Commit
}

// UserAgent identifies the explorer to the park portal.
func UserAgent() string {
	return AppName + "/" + Version
}
