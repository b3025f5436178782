package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContent = "../../games/stolen-lands"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "kingdomcore dev")
}

func TestScript_SampleContent(t *testing.T) {
	saves := t.TempDir()
	out, _, err := execute(t,
		"--script", filepath.Join(sampleContent, "demo.txt"),
		"--seed", "3",
		"--save-dir", saves,
		sampleContent,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "The Stolen Lands v0.1 by kingdomcore")
	assert.Contains(t, out, "bandit-raid: Bandit Raid (event, tier 1)")
	assert.Contains(t, out, "Bandit Raid is resolved.")
	assert.Contains(t, out, "Waiting on:")
	assert.Contains(t, out, "! F9: ")
	assert.Contains(t, out, "Accepted: C4")
	assert.Contains(t, out, "Claim Hexes is resolved.")
	assert.Contains(t, out, "Turn 2 begins.")
	assert.Contains(t, out, "Territory: 2 of 5 hexes claimed")
}

func TestScript_WithJournal(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(script, []byte("resolve drought failure\nconfirm\njournal\n"), 0o644))

	out, _, err := execute(t,
		"--script", script,
		"--journal", filepath.Join(dir, "journal.db"),
		"--save-dir", dir,
		sampleContent,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Drought is resolved.")
	assert.Contains(t, out, "No incomplete resolutions.")
}

func TestMissingContentDir(t *testing.T) {
	t.Chdir(t.TempDir())
	_, errOut, err := execute(t, "--plain")
	require.Error(t, err)
	assert.Contains(t, errOut, "no content directory")
}

func TestBadContentDir(t *testing.T) {
	_, errOut, err := execute(t, "--plain", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, errOut, "loading content")
}

func TestBadLogLevel(t *testing.T) {
	_, errOut, err := execute(t, "--plain", "--log-level", "chatty", sampleContent)
	require.Error(t, err)
	assert.Contains(t, errOut, "unknown log level")
}
