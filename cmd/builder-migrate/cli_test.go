package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handler = `use serenity::model::id::ChannelId;

async fn ping(channel: ChannelId, http: &Http) {
    channel.send_message(http, |m| m.content("pong")).await;
}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func project(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "ping.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(handler), 0o600))
	return dir, path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "builder-migrate dev\n", out)
}

func TestCheckText(t *testing.T) {
	dir, _ := project(t)
	out, err := run(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "src/ping.rs:4:32: WARNING BM0001: closure-style builders will break in the next version of serenity")
	assert.Contains(t, out, `CreateMessage::new().content("pong")`)
	assert.Contains(t, out, "1 closure-style builder(s) in 1 file(s)")
}

func TestCheckJSONAndDeny(t *testing.T) {
	_, path := project(t)
	out, err := run(t, "check", "--format", "json", path)
	require.NoError(t, err)

	var doc struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			Code  string `json:"code"`
			Fixes []struct {
				Applicability string `json:"applicability"`
			} `json:"fixes"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, 1, doc.Count)
	assert.Equal(t, "BM0001", doc.Diagnostics[0].Code)
	require.Len(t, doc.Diagnostics[0].Fixes, 1)
	assert.Equal(t, "always-safe", doc.Diagnostics[0].Fixes[0].Applicability)

	_, err = run(t, "check", "--deny", path)
	assert.True(t, errors.Is(err, errFindings))

	_, err = run(t, "check", "--format", "xml", path)
	assert.Error(t, err)
}

func TestFixAll(t *testing.T) {
	dir, path := project(t)

	out, err := run(t, "fix", "--all", "--dry-run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `CreateMessage::new().content("pong")`)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, handler, string(got))

	out, err = run(t, "fix", "--all", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 fix(es)")
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), `channel.send_message(http, CreateMessage::new().content("pong")).await;`)

	out, err = run(t, "fix", "--all", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No applicable fixes found.")
}

func TestFixFlagConflicts(t *testing.T) {
	dir, _ := project(t)
	for _, args := range [][]string{
		{"fix", "--all", "--once", dir},
		{"fix", "--id", "x", "--all", dir},
		{"fix", "--review", dir},
	} {
		_, err := run(t, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestScanAndSuggestions(t *testing.T) {
	dir, _ := project(t)
	db := filepath.Join(t.TempDir(), "s.db")

	out, err := run(t, "--db", db, "scan", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 file(s), 1 changed, 0 removed, 0 failed; 1 closure-style builder(s), 0 left unchanged")

	out, err = run(t, "--db", db, "suggestions", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "src/ping.rs:4:32: WARNING BM0001")
	assert.Contains(t, out, "help: replace with (always-safe)")

	_, err = run(t, "--db", db, "suggestions", "no-such-project")
	assert.Error(t, err)
}

func TestMultilineFlagOverridesConfig(t *testing.T) {
	dir, _ := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".buildermigrate.yml"), []byte("multiline_setters: true\n"), 0o600))

	out, err := run(t, "check", "--format", "json", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `CreateMessage::new()\n`)

	out, err = run(t, "--multiline=false", "check", "--format", "json", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `CreateMessage::new().content(\"pong\")`)
}
