// Package version carries build information injected with
// -ldflags "-X github.com/grovetools/ras/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "none"
	Branch    = "unknown"
	BuildDate = "unknown"
)

// Info is the build information of the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build information
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ras %s\n", i.Version)
	fmt.Fprintf(&b, "  Commit:  %s (%s)\n", i.Commit, i.Branch)
	fmt.Fprintf(&b, "  Built:   %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  Go:      %s %s", i.GoVersion, i.Platform)
	return b.String()
}
