package utils

import "runtime/debug"

type Version struct {
	Version   string
	GoVersion string
}

func GetVersion() (version Version) {
	// Defaults to master
	version.Version = "master"

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			// Current git hash
			if setting.Key == "vcs.revision" {
				version.Version = setting.Value
			}

			if setting.Key == "vcs.modified" && setting.Value == "true" {
				version.Version += " (modified)"
			}
		}

		version.GoVersion = info.GoVersion
	}

	return version
}

// UserAgent returns the default User-Agent sent by Ripley
func UserAgent() string {
	version := GetVersion().Version

	// Commit hashes are shortened
	if len(version) >= 40 {
		version = version[:7]
	}

	return "Mozilla/5.0 (compatible; Ripley/" + version + ")"
}
