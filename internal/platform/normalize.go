package platform

import (
	"fmt"
	"strings"
)

// normalizeArch converts GOARCH and uname style values to normalized
// architecture names.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	case "386", "i386", "i686":
		return "386", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}
}

// normalizeName lowercases and trims distro identifiers.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
