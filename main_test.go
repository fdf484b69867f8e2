package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const salesCSV = "region,sales\nNorth,10\nSouth,5\nNorth,2\n"

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, user string) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("STORAGE_DIR", filepath.Join(dir, "store"))
	t.Setenv("STORAGE_BUCKET", "converted")
	t.Setenv("TABULA_USER", user)
	t.Setenv("USER_ID", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	input := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(input, []byte(salesCSV), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return input
}

func TestConvertCommand(t *testing.T) {
	input := setupEnv(t, "alice")

	out, err := run(t, "convert", input, "--to", "json", "--save")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}

	want := filepath.Join(filepath.Dir(input), "sales_converted.json")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "[") {
		t.Errorf("output = %q, want a JSON array", data)
	}
	if !strings.Contains(out, "3 row(s)") || !strings.Contains(out, "Saved:") {
		t.Errorf("stdout = %q", out)
	}

	out, err = run(t, "files", "list")
	if err != nil {
		t.Fatalf("files list error = %v", err)
	}
	if !strings.Contains(out, "sales.csv") || !strings.Contains(out, "csv to json") {
		t.Errorf("files list = %q", out)
	}
}

func TestConvertCommand_OutDir(t *testing.T) {
	input := setupEnv(t, "")
	outDir := filepath.Join(t.TempDir(), "exports")

	if _, err := run(t, "convert", input, "--to", "xlsx", "--out", outDir); err != nil {
		t.Fatalf("convert error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "sales_converted.xlsx")); err != nil {
		t.Errorf("output not written to --out: %v", err)
	}
}

func TestConvertCommand_Errors(t *testing.T) {
	input := setupEnv(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing target", []string{"convert", input}},
		{"unsupported target", []string{"convert", input, "--to", "pdf"}},
		{"save without user", []string{"convert", input, "--to", "csv", "--save"}},
		{"missing file", []string{"convert", input + ".missing", "--to", "csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestChartCommand(t *testing.T) {
	input := setupEnv(t, "")

	out, err := run(t, "chart", input, "--mode", "pie")
	if err != nil {
		t.Fatalf("chart error = %v", err)
	}
	if !strings.Contains(out, "North") || !strings.Contains(out, "%") {
		t.Errorf("chart output = %q", out)
	}

	if _, err := run(t, "chart", input, "--mode", "line"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestFilesCommand_RequiresUser(t *testing.T) {
	setupEnv(t, "")

	if _, err := run(t, "files", "list"); err == nil {
		t.Error("expected an error without a user")
	}
}
