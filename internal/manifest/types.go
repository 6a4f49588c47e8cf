package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NativesPlaceholder is replaced by the platform classifier in Resolve.
const NativesPlaceholder = "${natives}"

// DefaultRepository is used for named libraries without an explicit repo.
const DefaultRepository = "https://libraries.minecraft.net/"

// DefaultCriticalMarkers are the path fragments of the libraries the game
// cannot start without. They apply when a manifest declares no markers.
var DefaultCriticalMarkers = []string{
	"net/minecraft/client/",
	"net/minecraft/launchwrapper/",
	"net/minecraftforge/forge/",
	"org/lwjgl/lwjgl/lwjgl/",
	"org/lwjgl/lwjgl/lwjgl-platform/",
}

// Entry is a single required artifact.
type Entry struct {
	// URL is the remote location of the artifact.
	URL string
	// Path is relative to the libraries directory, slash separated.
	Path string
	// Native marks archives whose payload is extracted to the natives dir.
	Native bool
	// Critical forces fatal classification regardless of markers.
	Critical bool
}

// Launch holds what is needed to start the game from this manifest's libraries.
type Launch struct {
	MainClass  string
	TweakClass string
	Minecraft  string
	AssetIndex string
}

// Manifest is an ordered, immutable list of required artifacts.
type Manifest struct {
	Name            string
	Repository      string
	CriticalMarkers []string
	Launch          Launch
	Entries         []Entry
}

// IsCritical reports whether failing to obtain e must abort the run.
func (m *Manifest) IsCritical(e Entry) bool {
	if e.Critical {
		return true
	}
	p := filepath.ToSlash(e.Path)
	for _, marker := range m.CriticalMarkers {
		if marker != "" && strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// Libraries returns the non-native entries in manifest order.
func (m *Manifest) Libraries() []Entry {
	return m.filter(false)
}

// Natives returns the native entries in manifest order.
func (m *Manifest) Natives() []Entry {
	return m.filter(true)
}

func (m *Manifest) filter(native bool) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Native == native {
			out = append(out, e)
		}
	}
	return out
}

// Resolve returns a copy of the manifest with NativesPlaceholder replaced by
// classifier in every URL and path.
func (m *Manifest) Resolve(classifier string) (*Manifest, error) {
	out := *m
	out.CriticalMarkers = append([]string(nil), m.CriticalMarkers...)
	out.Entries = make([]Entry, len(m.Entries))

	for i, e := range m.Entries {
		if strings.Contains(e.Path, NativesPlaceholder) || strings.Contains(e.URL, NativesPlaceholder) {
			if classifier == "" {
				return nil, fmt.Errorf("entry %s needs a natives classifier", e.Path)
			}
			e.Path = strings.ReplaceAll(e.Path, NativesPlaceholder, classifier)
			e.URL = strings.ReplaceAll(e.URL, NativesPlaceholder, classifier)
		}
		out.Entries[i] = e
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
