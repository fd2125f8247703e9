package versionfiles

import (
	"strings"
)

const (
	defaultStableVersionPathConstant   = "stable-version.txt"
	defaultLanguageVersionPathConstant = "python/version.py"
	defaultBuildVersionPathConstant    = "version.sbt"
	// DefaultDevelopmentMarker is appended to the next version in development rewrites.
	DefaultDevelopmentMarker = "-SNAPSHOT"
)

// Layout names the repository-relative locations of the version files.
type Layout struct {
	StableVersionPath   string `mapstructure:"stable_version"`
	LanguageVersionPath string `mapstructure:"language_version"`
	BuildVersionPath    string `mapstructure:"build_version"`
}

// DefaultLayout returns the conventional file locations.
func DefaultLayout() Layout {
	return Layout{
		StableVersionPath:   defaultStableVersionPathConstant,
		LanguageVersionPath: defaultLanguageVersionPathConstant,
		BuildVersionPath:    defaultBuildVersionPathConstant,
	}
}

// Sanitize trims the paths and falls back to defaults for blank entries.
func (layout Layout) Sanitize() Layout {
	defaults := DefaultLayout()
	return Layout{
		StableVersionPath:   valueOrDefault(layout.StableVersionPath, defaults.StableVersionPath),
		LanguageVersionPath: valueOrDefault(layout.LanguageVersionPath, defaults.LanguageVersionPath),
		BuildVersionPath:    valueOrDefault(layout.BuildVersionPath, defaults.BuildVersionPath),
	}
}

// Versions captures the value recorded in each version file.
type Versions struct {
	Stable   string `yaml:"stable"`
	Language string `yaml:"language"`
	Build    string `yaml:"build"`
}

// Set groups the stable, language, and build version files of a repository.
type Set struct {
	stable            StableVersionFile
	language          AssignmentFile
	build             AssignmentFile
	developmentMarker string
}

// NewSet constructs a Set for the layout. A blank marker falls back to DefaultDevelopmentMarker.
func NewSet(layout Layout, developmentMarker string) *Set {
	sanitizedLayout := layout.Sanitize()
	return &Set{
		stable:            StableVersionFile{Path: sanitizedLayout.StableVersionPath},
		language:          NewLanguageVersionFile(sanitizedLayout.LanguageVersionPath),
		build:             NewBuildVersionFile(sanitizedLayout.BuildVersionPath),
		developmentMarker: valueOrDefault(developmentMarker, DefaultDevelopmentMarker),
	}
}

// Files returns every file of the set in rewrite order.
func (set *Set) Files() []File {
	return []File{set.stable, set.language, set.build}
}

// DevelopmentVersion returns the next version with the development marker applied.
func (set *Set) DevelopmentVersion(nextVersion string) string {
	return strings.TrimSpace(nextVersion) + set.developmentMarker
}

// Read returns the versions currently recorded under root.
func (set *Set) Read(root string) (Versions, error) {
	stableVersion, readError := Read(root, set.stable)
	if readError != nil {
		return Versions{}, readError
	}
	languageVersion, readError := Read(root, set.language)
	if readError != nil {
		return Versions{}, readError
	}
	buildVersion, readError := Read(root, set.build)
	if readError != nil {
		return Versions{}, readError
	}
	return Versions{Stable: stableVersion, Language: languageVersion, Build: buildVersion}, nil
}

// PlanRelease renders the release rewrite of all three files without writing.
func (set *Set) PlanRelease(root string, releaseVersion string) ([]Change, error) {
	return planAll(root, set.Files(), strings.TrimSpace(releaseVersion))
}

// PlanDevelopment renders the development rewrite of the language and build
// files without writing. The stable version file is left alone.
func (set *Set) PlanDevelopment(root string, nextVersion string) ([]Change, error) {
	return planAll(root, []File{set.language, set.build}, set.DevelopmentVersion(nextVersion))
}

// ApplyRelease writes the release rewrite and returns the paths it touched.
func (set *Set) ApplyRelease(root string, releaseVersion string) ([]string, error) {
	changes, planError := set.PlanRelease(root, releaseVersion)
	if planError != nil {
		return nil, planError
	}
	return Write(root, changes)
}

// ApplyDevelopment writes the development rewrite and returns the paths it touched.
func (set *Set) ApplyDevelopment(root string, nextVersion string) ([]string, error) {
	changes, planError := set.PlanDevelopment(root, nextVersion)
	if planError != nil {
		return nil, planError
	}
	return Write(root, changes)
}

func planAll(root string, files []File, version string) ([]Change, error) {
	changes := make([]Change, 0, len(files))
	for _, file := range files {
		change, planError := Plan(root, file, version)
		if planError != nil {
			return nil, planError
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
