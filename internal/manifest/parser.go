package manifest

import (
	"context"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/platform"
)

// Parser evaluates Lua manifests with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a manifest parser. A nil detector leaves the platform
// table undefined, which only works for manifests that never reference it.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError represents a manifest parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile reads and parses a manifest file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseBuiltin parses one of the embedded manifests by name.
func (p *Parser) ParseBuiltin(ctx context.Context, name string) (*Manifest, error) {
	data, err := Builtin(name)
	if err != nil {
		return nil, err
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a manifest from Lua source.
func (p *Parser) ParseString(ctx context.Context, src string) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(src); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ParseError{Message: "Lua error", Detail: err.Error()}
	}

	return extractManifest(L)
}

// extractManifest reads the global "manifest" table.
func extractManifest(L *lua.LState) (*Manifest, error) {
	global := L.GetGlobal("manifest")
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'manifest' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	m := &Manifest{
		Name:       stringField(table, "name"),
		Repository: stringField(table, "repository"),
	}
	if m.Repository == "" {
		m.Repository = DefaultRepository
	}

	if v, ok := table.RawGetString("critical").(*lua.LTable); ok {
		m.CriticalMarkers = stringList(v)
	} else {
		m.CriticalMarkers = append([]string(nil), DefaultCriticalMarkers...)
	}

	if v, ok := table.RawGetString("launch").(*lua.LTable); ok {
		m.Launch = Launch{
			MainClass:  stringField(v, "main_class"),
			TweakClass: stringField(v, "tweak_class"),
			Minecraft:  stringField(v, "minecraft"),
			AssetIndex: stringField(v, "asset_index"),
		}
	}

	libs, ok := table.RawGetString("libraries").(*lua.LTable)
	if !ok {
		return nil, &ParseError{Message: "missing 'libraries' table", Detail: "manifest.libraries must be a table"}
	}

	// Walk by index so entry order matches declaration order; nil holes
	// come from platform.when and are skipped.
	for i := 1; i <= libs.MaxN(); i++ {
		value := libs.RawGetInt(i)
		if value == lua.LNil {
			continue
		}

		entry, err := extractEntry(value, m.Repository)
		if err != nil {
			return nil, &ParseError{
				Message: fmt.Sprintf("invalid libraries[%d]", i),
				Detail:  err.Error(),
			}
		}
		m.Entries = append(m.Entries, entry)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// extractEntry accepts either a coordinate string or a table with
// name/repo/url/path/natives/critical fields.
func extractEntry(value lua.LValue, repository string) (Entry, error) {
	switch v := value.(type) {
	case lua.LString:
		return entryFromName(string(v), "", repository, false)

	case *lua.LTable:
		var (
			entry Entry
			err   error
		)
		native := boolField(v, "natives")

		if name := stringField(v, "name"); name != "" {
			repo := stringField(v, "repo")
			if repo == "" {
				repo = repository
			}
			entry, err = entryFromName(name, stringField(v, "url"), repo, native)
			if err != nil {
				return Entry{}, err
			}
		} else {
			entry = Entry{
				URL:    stringField(v, "url"),
				Path:   stringField(v, "path"),
				Native: native,
			}
			if entry.Path == "" {
				return Entry{}, fmt.Errorf("entry needs either name or path")
			}
		}

		if p := stringField(v, "path"); p != "" {
			entry.Path = p
		}
		entry.Critical = boolField(v, "critical")
		return entry, nil

	default:
		return Entry{}, fmt.Errorf("expected string or table, got %s", value.Type())
	}
}

func entryFromName(name, explicitURL, repository string, native bool) (Entry, error) {
	coord, err := ParseCoordinate(name)
	if err != nil {
		return Entry{}, err
	}
	if native && coord.Classifier == "" {
		coord.Classifier = NativesPlaceholder
	}

	p := coord.Path()
	u := explicitURL
	if u == "" {
		u = strings.TrimSuffix(repository, "/") + "/" + p
	}

	return Entry{URL: u, Path: p, Native: native}, nil
}

func stringField(t *lua.LTable, key string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return ""
}

func boolField(t *lua.LTable, key string) bool {
	if v, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(v)
	}
	return false
}

func stringList(t *lua.LTable) []string {
	var out []string
	for i := 1; i <= t.MaxN(); i++ {
		if v, ok := t.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(v))
		}
	}
	return out
}

// FormatError formats a ParseError for user display. Without verbose the
// Lua stack traceback is dropped.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
