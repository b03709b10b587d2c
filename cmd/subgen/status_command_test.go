package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"subgen/internal/api"
)

func TestStatusReportsChecksAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, modelReply{})

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	var status api.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Model != "test-model" || status.History.Total != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	names := make(map[string]bool)
	for _, check := range status.Checks {
		names[check.Name] = check.Passed
	}
	if !names["Output directory"] || !names["Data directory"] {
		t.Fatalf("expected directory checks to pass: %+v", status.Checks)
	}
	if len(status.Checks) < 4 {
		t.Fatalf("expected key and model checks: %+v", status.Checks)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status table: %v", err)
	}
	requireContains(t, out, "Output directory")
	requireContains(t, out, "Model:      test-model")
}

func TestStatusFailsWhenModelRejectsKey(t *testing.T) {
	env := setupCLITestEnv(t, modelReply{status: http.StatusForbidden})

	_, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil {
		t.Fatal("expected status to fail")
	}
	requireContains(t, err.Error(), "check(s) failed")

	if _, _, err := runCLI(t, []string{"status", "--offline"}, env.configPath); err != nil {
		t.Fatalf("offline status: %v", err)
	}
}

func TestFormatSpan(t *testing.T) {
	tests := map[string]struct {
		seconds int
		want    string
	}{
		"zero":    {0, "0:00"},
		"minutes": {125, "2:05"},
		"hours":   {3725, "1:02:05"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := formatSpan(secondsDuration(tc.seconds)); got != tc.want {
				t.Fatalf("formatSpan = %q, want %q", got, tc.want)
			}
		})
	}
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
