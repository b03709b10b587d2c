package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", ""); result.Passed {
		t.Fatal("expected failure for empty path")
	}
}

func TestCheckAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckAPIKey(cfg); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	cfg.Gemini.APIKey = ""
	result := CheckAPIKey(cfg)
	if result.Passed || !strings.Contains(result.Detail, "GEMINI_API_KEY") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func modelServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"name":"models/gemini-2.5-flash"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckGemini_OK(t *testing.T) {
	srv := modelServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))
	result := CheckGemini(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	srv := modelServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL), testsupport.WithAPIKey("wrong"))
	result := CheckGemini(context.Background(), cfg)
	if result.Passed || result.Detail != "API key rejected" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckGemini_UnknownModel(t *testing.T) {
	srv := modelServer(t, http.StatusNotFound)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))
	result := CheckGemini(context.Background(), cfg)
	if result.Passed || result.Detail != "model not found" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckBrokers_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	result := CheckBrokers(context.Background(), []string{addr})
	if result.Passed || !strings.Contains(result.Detail, addr) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckBrokers_NoneConfigured(t *testing.T) {
	if result := CheckBrokers(context.Background(), nil); result.Passed {
		t.Fatal("expected failure with no brokers")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SkipsModelWithoutKey(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIKey(""))
	results := RunAll(context.Background(), cfg)
	// output + data + logs + api key
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Gemini API key" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestRunAll_IncludesModelCheck(t *testing.T) {
	srv := modelServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL), testsupport.WithoutLogFile())
	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
