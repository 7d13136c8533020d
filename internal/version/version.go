package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// Version information for the loa CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders Version with major, minor and patch in their own colors.
// Versions that are not major.minor.patch are returned unchanged.
func Colored() string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}

// Line is what `loa version` prints.
func Line(colored bool) string {
	v := Version
	if colored {
		v = Colored()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "loa %s", v)
	if GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, " built %s", BuildDate)
	}
	return b.String()
}

// Info is the machine readable form of `loa version`.
type Info struct {
	Tool    string `json:"tool" yaml:"tool"`
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	Date    string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	Go      string `json:"go" yaml:"go"`
}

// Current fills Info from the ldflags variables. Without -ldflags the commit
// comes from the VCS stamp the go tool embeds.
func Current() Info {
	info := Info{
		Tool:    "loa",
		Version: strings.TrimSpace(Version),
		Commit:  strings.TrimSpace(GitCommit),
		Date:    strings.TrimSpace(BuildDate),
		Go:      runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "":
			info.Date = s.Value
		}
	}
	return info
}
