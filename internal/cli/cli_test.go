package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("rvmctl %s failed: %v (output: %s)", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestDecodeCommandPrintsDisassembly(t *testing.T) {
	path := writeTempJSON(t, `["!"]`) // a single OpString instruction
	out := runCLI(t, "decode", path)
	if !strings.Contains(out, "string") {
		t.Errorf("output = %q, want it to mention the string opcode", out)
	}
}

func TestDecodeCommandJSONFormat(t *testing.T) {
	path := writeTempJSON(t, `["!"]`)
	out := runCLI(t, "--format=json", "decode", path)
	if !strings.Contains(out, `"op": "string"`) {
		t.Errorf("output = %q, want a JSON instruction naming the string opcode", out)
	}
}

func TestRunCommandResolvesProgram(t *testing.T) {
	path := writeTempJSON(t, `["!"]`)
	out := runCLI(t, "run", path)
	if strings.TrimSpace(out) != "string" {
		t.Errorf("output = %q, want \"string\"", out)
	}
}

func TestResolveOfCommandResolvesBareProgramArray(t *testing.T) {
	path := writeTempJSON(t, `["!"]`)
	out := runCLI(t, "resolve-of", path)
	if strings.TrimSpace(out) != "string" {
		t.Errorf("output = %q, want \"string\"", out)
	}
}

func TestResolveOfCommandResolvesHandleWithEmbeddedType(t *testing.T) {
	path := writeTempJSON(t, `{"name": "Widget", "__type": ["!"]}`)
	out := runCLI(t, "resolve-of", path)
	if strings.TrimSpace(out) != "string" {
		t.Errorf("output = %q, want \"string\"", out)
	}
}
