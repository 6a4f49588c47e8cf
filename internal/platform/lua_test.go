package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func evalLua(t *testing.T, L *lua.LState, code string) lua.LValue {
	t.Helper()
	if err := L.DoString(code); err != nil {
		t.Fatalf("DoString(%q) error = %v", code, err)
	}
	v := L.Get(-1)
	L.Pop(1)
	return v
}

func TestInjectPlatformTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	info := &Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64", Distro: "fedora"}
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	tests := []struct {
		code string
		want lua.LValue
	}{
		{`return platform.os`, lua.LString("linux")},
		{`return platform.arch`, lua.LString("amd64")},
		{`return platform.natives`, lua.LString(NativesLinux)},
		{`return platform.distro`, lua.LString("fedora")},
		{`return platform.is_linux`, lua.LTrue},
		{`return platform.is_macos`, lua.LFalse},
		{`return platform.is_windows`, lua.LFalse},
		{`return platform.is_amd64`, lua.LTrue},
		{`return platform.is_arm64`, lua.LFalse},
		{`return platform.when(true, "x")`, lua.LString("x")},
		{`return platform.when(false, "x")`, lua.LNil},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := evalLua(t, L, tt.code)
			if got.Type() != tt.want.Type() || got.String() != tt.want.String() {
				t.Errorf("got %v (%s), want %v (%s)", got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestInjectPlatformTable_UnknownOS(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "plan9", Arch: "amd64"}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	if got := evalLua(t, L, `return platform.natives`); got != lua.LNil {
		t.Errorf("natives = %v, want nil", got)
	}
	if got := evalLua(t, L, `return platform.distro`); got != lua.LNil {
		t.Errorf("distro = %v, want nil", got)
	}
}

func TestInjectPlatformTable_ReadOnly(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	if err := InjectPlatformTable(L, &Info{OS: "darwin", Arch: "arm64"}); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}

	for _, code := range []string{
		`platform.os = "windows"`,
		`platform.new_field = 1`,
		`setmetatable(platform, {})`,
	} {
		err := L.DoString(code)
		if err == nil {
			t.Errorf("%q: expected error, got none", code)
			continue
		}
		if !strings.Contains(err.Error(), "read-only") && !strings.Contains(err.Error(), "protected") {
			t.Errorf("%q: unexpected error %v", code, err)
		}
	}

	if got := evalLua(t, L, `return platform.os`); got.String() != "darwin" {
		t.Errorf("platform.os = %v after write attempts, want darwin", got)
	}
}
