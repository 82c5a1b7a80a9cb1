package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/etnz/finsim/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: "warn"}, &buf)

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info message logged at warn level: %s", buf.String())
	}
	log.Warn().Str("component", "test").Msg("shown")
	if !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Errorf("warn message not logged: %s", buf.String())
	}
}

func TestNewLogger_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: "loud"}, &buf)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("logged %d lines, want 1: %s", got, buf.String())
	}
}

func TestPrintMarkdown_Raw(t *testing.T) {
	var buf bytes.Buffer
	printMarkdown(&buf, "# Title\n", false)
	if got, want := buf.String(), "# Title\n"; got != want {
		t.Errorf("printMarkdown() = %q, want %q", got, want)
	}
}

func TestExtensionEnv(t *testing.T) {
	old := *rulesDir
	t.Cleanup(func() { *rulesDir = old })
	*rulesDir = "/tmp/rules"

	env := extensionEnv(nil)
	want := []string{config.EnvRulesDir + "=/tmp/rules", EnvVerbose + "=false"}
	if strings.Join(env, ",") != strings.Join(want, ",") {
		t.Errorf("extensionEnv() = %v, want %v", env, want)
	}
}

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extensions are shell scripts")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\n[ \"$" + EnvVerbose + "\" = false ] || exit 2\nexit 3\n"
	if err := os.WriteFile(filepath.Join(dir, "finsim-hello"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	found, code := RunExtension("hello", nil)
	if !found || code != 3 {
		t.Errorf("RunExtension(hello) = (%v, %d), want (true, 3)", found, code)
	}

	if found, _ := RunExtension("missing", nil); found {
		t.Errorf("RunExtension(missing) found an extension")
	}
}
