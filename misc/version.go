// Package misc keeps program identification details.
package misc

import "runtime/debug"

// Set at build time with -ldflags "-X pdf2epub/misc.version=... -X pdf2epub/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
	appName = "pdf2epub"
)

// GetAppName returns program name.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns revision program was built from, when known.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
