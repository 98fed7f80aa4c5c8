// Package buildinfo reports which build of menubot is running.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Set at link time, for example:
//
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Date=2026-01-30T12:00:00Z'
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// Info is a resolved snapshot of the build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

var (
	once     sync.Once
	resolved Info
)

// Get returns the link-time values, filling Commit and Date from the
// toolchain's VCS stamp when they were not set.
func Get() Info {
	once.Do(func() {
		resolved = resolve(Version, Commit, Date, readSettings())
	})
	return resolved
}

func readSettings() map[string]string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	out := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		out[s.Key] = s.Value
	}
	return out
}

func resolve(version, commit, date string, settings map[string]string) Info {
	info := Info{Version: version, Commit: commit, Date: date}
	if rev := settings["vcs.revision"]; rev != "" && (commit == "" || commit == "local") {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		info.Commit = rev
	}
	if t := settings["vcs.time"]; t != "" && date == "" {
		info.Date = t
	}
	info.Dirty = settings["vcs.modified"] == "true"
	return info
}

// String renders "version (commit)" with a +dirty marker for modified trees.
func (i Info) String() string {
	s := i.Version + " (" + i.Commit
	if i.Dirty {
		s += "+dirty"
	}
	return s + ")"
}
