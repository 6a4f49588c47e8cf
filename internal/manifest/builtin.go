package manifest

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed embedded/*.lua
var builtinFS embed.FS

// Builtin returns the Lua source of an embedded manifest.
func Builtin(name string) ([]byte, error) {
	data, err := builtinFS.ReadFile(path.Join("embedded", name+".lua"))
	if err != nil {
		return nil, fmt.Errorf("unknown built-in manifest %q", name)
	}
	return data, nil
}

// BuiltinNames lists the embedded manifests.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "embedded")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, strings.TrimSuffix(e.Name(), ".lua"))
		}
	}
	sort.Strings(names)
	return names
}
