package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	stateDir   string
	configPath string
}

type configOption func(*strings.Builder)

func withLLM(baseURL, apiKey string) configOption {
	return func(b *strings.Builder) {
		fmt.Fprintf(b, "\n[llm]\nbase_url = %q\napi_key = %q\nmodel = \"test-model\"\ntimeout_seconds = 5\n", baseURL, apiKey)
	}
}

func setupCLITestEnv(t *testing.T, backend string, opts ...configOption) *cliTestEnv {
	t.Helper()

	for _, key := range []string{
		"TRUTHJOURNAL_STATE_DIR",
		"TRUTHJOURNAL_STORE",
		"TRUTHJOURNAL_LOG_LEVEL",
		"TRUTHJOURNAL_LLM_API_KEY",
		"TRUTHJOURNAL_HANDSHAKE_AUDIT",
	} {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		stateDir:   filepath.Join(base, "state"),
		configPath: filepath.Join(base, "truthjournal.toml"),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nstate_dir = %q\nincoming_dir = %q\noutput_dir = %q\narchive_dir = %q\n",
		env.stateDir,
		filepath.Join(base, "incoming"),
		filepath.Join(base, "output"),
		filepath.Join(base, "archive"),
	)
	fmt.Fprintf(&b, "\n[store]\nbackend = %q\n", backend)
	b.WriteString("\n[logging]\nlevel = \"error\"\nformat = \"json\"\n")
	for _, opt := range opts {
		opt(&b)
	}
	if err := os.WriteFile(env.configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
