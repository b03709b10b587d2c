package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"subgen/internal/config"
	"subgen/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	model      *httptest.Server
	requests   *atomic.Int32
}

// modelReply is the text the fake model streams, one SSE event per element.
type modelReply struct {
	status int
	chunks []string
}

func setupCLITestEnv(t *testing.T, reply modelReply) *cliTestEnv {
	t.Helper()

	var requests atomic.Int32
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if reply.status != 0 && reply.status != http.StatusOK {
			http.Error(w, `{"error":{"message":"denied"}}`, reply.status)
			return
		}
		if strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range reply.chunks {
				fmt.Fprint(w, sseEvent(chunk))
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"models/test-model"}`)
	}))
	t.Cleanup(model.Close)

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")

	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(model.URL+"/v1beta"), testsupport.WithoutLogFile())
	cfg.Gemini.Model = "test-model"
	configPath := filepath.Join(homeDir, ".config", "subgen", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		model:      model,
		requests:   &requests,
	}
}

func sseEvent(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}}},
	})
	return "data: " + string(payload) + "\n\n"
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

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
output_dir = %q
data_dir = %q
log_dir = ""

[gemini]
base_url = %q
model = %q

[logging]
level = "error"
`,
		cfg.Paths.OutputDir,
		cfg.Paths.DataDir,
		cfg.Gemini.BaseURL,
		cfg.Gemini.Model,
	)
	testsupport.WriteFile(t, path, []byte(content))
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
