package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote"
	"github.com/MH469Arya/ProfRankSystem/cmd/security/adminkey"
)

func sampleRankings() vote.Rankings {
	return vote.Rankings{
		DivisionCode: "CS-SE-A",
		BallotCount:  2,
		Standings: []vote.Standing{
			{Rank: 1, CandidateID: "T1", Name: "Dr. Rao", SubjectLabel: "Compilers", Points: 4, Appearances: 2, OnRoster: true},
			{Rank: 2, CandidateID: "T9", Points: 1, Appearances: 1},
		},
	}
}

func TestWriteRankingsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRankingsJSON(&buf, sampleRankings()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got rankingsJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BallotCount != 2 || len(got.Standings) != 2 || got.Standings[0].CandidateID != "T1" || got.Standings[1].OnRoster {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestWriteRankingsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRankingsTable(&buf, sampleRankings()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CS-SE-A: 2 ballot(s)", "RANK", "Dr. Rao", "T9 (off roster)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHashAdminKey_FromStdin(t *testing.T) {
	t.Setenv("PROFRANK_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("PROFRANK_ARGON2_ITERATIONS", "1")

	key := strings.Repeat("a", 32)
	var out bytes.Buffer
	root := rootCommand()
	root.SetArgs([]string{"--env-file", "", "hash-admin-key"})
	root.SetIn(strings.NewReader(key + "\n"))
	root.SetOut(&out)
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	line := strings.TrimSpace(out.String())
	hash, ok := strings.CutPrefix(line, "PROFRANK_ADMIN_KEY_HASH=")
	if !ok {
		t.Fatalf("unexpected output %q", line)
	}
	cfg, err := adminkey.FromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	match, err := cfg.Verify(hash, key)
	if err != nil || !match {
		t.Fatalf("expected hash to verify (match=%v err=%v)", match, err)
	}
}

func TestHashAdminKey_RejectsShortKey(t *testing.T) {
	root := rootCommand()
	root.SetArgs([]string{"--env-file", "", "hash-admin-key"})
	root.SetIn(strings.NewReader("short\n"))
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected short key to be rejected")
	}
}
