// Package version carries build metadata stamped in by -ldflags.
package version

import "runtime"

// Name is the program name used in version output and user agents.
const Name = "dictaform"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return Name + " " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent identifies outbound HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
