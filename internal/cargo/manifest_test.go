package cargo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSerenityForms(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		version string
		crate   string
	}{
		{"plain", "[dependencies]\nserenity = \"0.11.7\"\n", "0.11.7", "serenity"},
		{"inline", "[dependencies]\nserenity = { version = \"^0.11\", default-features = false, features = [\"client\", \"gateway\"] }\n", "^0.11", "serenity"},
		{"subtable", "[dependencies.serenity]\nversion = \"0.12.0\"\nfeatures = [\"model\"]\n", "0.12.0", "serenity"},
		{"renamed", "[dependencies]\ndiscord = { package = \"serenity\", version = \"0.11\" }\n", "0.11", "serenity"},
		{"dotted", "dependencies.serenity.version = '0.11.5'\n", "0.11.5", "serenity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Parse([]byte(tc.src))
			require.NoError(t, err)
			d, ok := m.Serenity()
			require.True(t, ok)
			assert.Equal(t, tc.version, d.Version)
			assert.Equal(t, tc.crate, d.Crate())
		})
	}
}

func TestParsePackageAndFeatures(t *testing.T) {
	src := `# bot manifest
[package]
name = "pingbot"
version = "0.1.0"

[dependencies]
tokio = { version = "1", features = ["full"] }
serenity = { version = "0.11", features = ["client", "gateway"] } # pinned

[dev-dependencies]
serenity = "0.11"
`
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "pingbot", m.Package)
	require.Len(t, m.Dependencies, 3)

	d, ok := m.Serenity()
	require.True(t, ok)
	assert.Equal(t, "dependencies", d.Table)
	assert.Equal(t, []string{"client", "gateway"}, d.Features)
}

func TestWorkspaceInheritance(t *testing.T) {
	src := `[workspace.dependencies]
serenity = { git = "https://github.com/serenity-rs/serenity", version = "0.11" }

[dependencies]
serenity = { workspace = true }
`
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	d, ok := m.Serenity()
	require.True(t, ok)
	assert.True(t, d.Workspace)
	assert.Equal(t, "0.11", d.Version)
	assert.Equal(t, "https://github.com/serenity-rs/serenity", d.Git)
}

func TestNoSerenity(t *testing.T) {
	m, err := Parse([]byte("[package]\nname = \"x\"\n"))
	require.NoError(t, err)
	_, ok := m.Serenity()
	assert.False(t, ok)

	_, err = Parse([]byte("[package\nname = "))
	assert.Error(t, err)
}

func TestMajorMinor(t *testing.T) {
	cases := map[string][3]int{
		"0.11.7":        {0, 11, 1},
		"^0.12":         {0, 12, 1},
		"~0.11.0":       {0, 11, 1},
		">=0.11, <0.12": {0, 11, 1},
		"0.11.*":        {0, 11, 1},
		"1":             {0, 0, 0},
		"":              {0, 0, 0},
	}
	for in, want := range cases {
		major, minor, ok := Dependency{Version: in}.MajorMinor()
		got := [3]int{major, minor, 0}
		if ok {
			got[2] = 1
		}
		assert.Equal(t, want, got, in)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("[dependencies]\nserenity = \"0.11\"\n"), 0o600))
	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), m.Path)
}
