package drift

import (
	"fmt"
	"strings"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"

// FormatDriftReport formats a drift report for user display
func FormatDriftReport(r *Report) string {
	var sb strings.Builder
	// Pre-allocate for typical report size (header + entries + summary)
	sb.Grow(1024 + len(r.Libraries)*128)

	sb.WriteString("\n" + rule)
	sb.WriteString(fmt.Sprintf("DRIFT REPORT: %s\n", r.Pack.Pack))
	sb.WriteString(rule + "\n")

	sb.WriteString(formatPack(r.Pack))
	if r.Manifest != "" {
		sb.WriteString(fmt.Sprintf("  Manifest:  %s\n", r.Manifest))
	}
	sb.WriteString("\n")

	counts := make(map[DriftType]int)
	for _, l := range r.Libraries {
		counts[l.DriftType]++
	}

	// Display each drift (skip OK entries in detailed view)
	for _, l := range r.Libraries {
		if l.DriftType == DriftOK {
			continue
		}
		sb.WriteString(formatLibrary(l))
	}
	if counts[DriftOK] > 0 {
		sb.WriteString(fmt.Sprintf("[OK] ✓\n  %d libraries present\n\n", counts[DriftOK]))
	}

	sb.WriteString(rule)
	if r.Clean() {
		sb.WriteString("SUMMARY: No drifts detected ✓\n")
	} else {
		var parts []string
		if n := len(r.Blocking()); n > 0 {
			parts = append(parts, fmt.Sprintf("%d required missing", n))
		}
		if counts[DriftMissing] > 0 {
			parts = append(parts, fmt.Sprintf("%d missing", counts[DriftMissing]))
		}
		if counts[DriftUndersized] > 0 {
			parts = append(parts, fmt.Sprintf("%d undersized", counts[DriftUndersized]))
		}
		if counts[DriftNotRegular] > 0 {
			parts = append(parts, fmt.Sprintf("%d not a regular file", counts[DriftNotRegular]))
		}
		if r.Pack.DriftType != DriftOK {
			parts = append(parts, strings.ToLower(strings.ReplaceAll(r.Pack.DriftType.String(), "_", " ")))
		}
		sb.WriteString("SUMMARY: " + strings.Join(parts, ", ") + "\n")
	}
	sb.WriteString(rule)

	return sb.String()
}

func formatPack(p PackResult) string {
	switch p.DriftType {
	case DriftNotInstalled:
		return "[NOT INSTALLED]\n    → run: packlauncher install " + p.Pack + "\n"
	case DriftVersionMismatch:
		return fmt.Sprintf("[VERSION MISMATCH]\n  Installed: %s\n  Catalog:   %s\n", p.InstalledVersion, p.CatalogVersion)
	}
	if p.CatalogVersion == "" {
		return fmt.Sprintf("  Installed: %s\n", p.InstalledVersion)
	}
	return fmt.Sprintf("  Installed: %s (catalog %s) ✓\n", p.InstalledVersion, p.CatalogVersion)
}

// formatLibrary formats a single drift entry
func formatLibrary(l LibraryResult) string {
	var sb strings.Builder

	kind := "library"
	if l.Native {
		kind = "native"
	}
	if l.Critical {
		kind = "required " + kind
	}

	switch l.DriftType {
	case DriftMissing:
		sb.WriteString(fmt.Sprintf("[MISSING] %s\n", l.Path))
		sb.WriteString(fmt.Sprintf("    → %s will be downloaded on the next launch\n", kind))
	case DriftUndersized:
		sb.WriteString(fmt.Sprintf("[UNDERSIZED] %s\n", l.Path))
		sb.WriteString(fmt.Sprintf("    → %s is only %d bytes; delete it to force a fresh download\n", kind, l.Size))
	case DriftNotRegular:
		sb.WriteString(fmt.Sprintf("[NOT A FILE] %s\n", l.Path))
		sb.WriteString(fmt.Sprintf("    → %s path is occupied by a directory or special file\n", kind))
	}
	sb.WriteString("\n")
	return sb.String()
}
