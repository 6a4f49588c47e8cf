// Package platform detects the host OS and architecture and maps them onto
// the classifiers used by native library jars.
//
// The detected Info is also exposed to library manifests as a read-only Lua
// table so a manifest can select platform-specific entries declaratively.
package platform

import (
	"context"
	"fmt"
)

// Natives classifiers used by LWJGL 2 era native jars.
const (
	NativesLinux   = "natives-linux"
	NativesMacOS   = "natives-osx"
	NativesWindows = "natives-windows"
)

// Info contains platform detection information.
type Info struct {
	OS            string // "linux", "darwin", "windows"
	Arch          string // "amd64", "arm64", "386" (normalized)
	ArchRaw       string // original GOARCH
	Distro        string // distro ID (Linux only, e.g., "ubuntu")
	DistroVersion string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// NativesClassifier returns the classifier suffix of the native jars that
// match this platform.
func (i *Info) NativesClassifier() (string, error) {
	switch i.OS {
	case "linux":
		return NativesLinux, nil
	case "darwin":
		return NativesMacOS, nil
	case "windows":
		return NativesWindows, nil
	default:
		return "", fmt.Errorf("no native libraries published for OS: %s", i.OS)
	}
}

// String returns a short human readable description, e.g. "linux/amd64 (ubuntu 22.04)".
func (i *Info) String() string {
	s := i.OS + "/" + i.Arch
	if i.Distro != "" {
		s += " (" + i.Distro
		if i.DistroVersion != "" {
			s += " " + i.DistroVersion
		}
		s += ")"
	}
	return s
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
