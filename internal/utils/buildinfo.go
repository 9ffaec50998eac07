package utils

import (
	"runtime/debug"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
	revisionSettingKey = "vcs.revision"
	modifiedSettingKey = "vcs.modified"
	shortRevisionSize  = 12
	dirtySuffix        = "-dirty"
)

// Version is set at link time with -ldflags "-X github.com/tyemirov/arbor/internal/utils.Version=v1.2.3".
var Version string

// GetApplicationVersion reports the linked version, then the module version
// from build info, then the VCS revision recorded by the Go toolchain.
func GetApplicationVersion() string {
	if Version != "" {
		return Version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if !buildInfoAvailable {
		return unknownVersion
	}
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return revisionFromSettings(buildInfo.Settings)
}

func revisionFromSettings(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, setting := range settings {
		switch setting.Key {
		case revisionSettingKey:
			revision = setting.Value
		case modifiedSettingKey:
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > shortRevisionSize {
		revision = revision[:shortRevisionSize]
	}
	if modified {
		revision += dirtySuffix
	}
	return revision
}
