package main

import (
	"encoding/json"
	"strings"
	"testing"

	"subgen/internal/api"
	"subgen/internal/testsupport"
)

func TestHistoryListShowAndClear(t *testing.T) {
	env := setupCLITestEnv(t, modelReply{chunks: []string{twoRecords}})
	transcript, audio := testsupport.WriteInputs(t, env.baseDir, "Hello. World.")
	if _, _, err := runCLI(t, []string{"generate", "--no-progress", transcript, audio}, env.configPath); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "succeeded")
	requireContains(t, out, "interview.wav")

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	var list api.RunListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Runs) != 1 || list.Runs[0].Blocks != 2 || list.Runs[0].FileName != "interview.srt" {
		t.Fatalf("unexpected runs %+v", list.Runs)
	}
	id := list.Runs[0].ID

	out, _, err = runCLI(t, []string{"history", "show", id[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Run:        "+id)
	requireContains(t, out, "Blocks:     2 (0 dropped)")

	out, _, err = runCLI(t, []string{"history", "show", "--srt", id}, env.configPath)
	if err != nil {
		t.Fatalf("history show --srt: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "World") {
		t.Fatalf("unexpected srt %q", out)
	}

	if _, _, err := runCLI(t, []string{"history", "clear"}, env.configPath); err == nil {
		t.Fatal("expected clear to require --yes")
	}
	out, _, err = runCLI(t, []string{"history", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 1 run(s)")

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestHistoryShowUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t, modelReply{})
	_, _, err := runCLI(t, []string{"history", "show", "nope"}, env.configPath)
	if err == nil {
		t.Fatal("expected not found error")
	}
	requireContains(t, err.Error(), "not found")
}
