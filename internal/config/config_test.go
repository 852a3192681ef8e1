package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/builder-migrate/internal/builder"
	"github.com/DeusData/builder-migrate/internal/typeck"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.EffectiveStrictReceivers())
	assert.False(t, cfg.EffectiveMultilineSetters())
	assert.Equal(t, builder.DefaultTarget, cfg.EffectiveTarget())
	assert.Empty(t, cfg.Ignore)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
target:
  crate: poise_serenity
  module: builders
strict_receivers: false
multiline_setters: true
required_fields:
  CreateEmbed: [title]
signatures:
  - {receiver: MyHelper, method: reply, arg: 0, param: CreateReply}
ignore:
  - "examples/**"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.EffectiveStrictReceivers())
	assert.True(t, cfg.EffectiveMultilineSetters())
	assert.Equal(t, builder.Target{Crate: "poise_serenity", Module: "builders"}, cfg.EffectiveTarget())
	assert.Equal(t, []string{"examples/**"}, cfg.Ignore)

	opts := cfg.LintOptions()
	assert.False(t, opts.StrictReceivers)
	assert.True(t, opts.MultilineSetters)

	assert.Equal(t, []string{"title"}, cfg.Registry().Required("CreateEmbed"))
	assert.Equal(t, []string{"text"}, cfg.Registry().Required("CreateEmbedFooter"))

	base, err := typeck.Default()
	require.NoError(t, err)
	cat := cfg.Catalogue(base)
	assert.Equal(t, "poise_serenity", cat.Crate)
	assert.Equal(t, "serenity", base.Crate)
	param, ok := cat.Lookup("MyHelper", "reply", 0)
	require.True(t, ok)
	assert.Equal(t, "CreateReply", param)
	assert.True(t, cat.IsBuilder("CreateReply"))
	_, ok = base.Lookup("MyHelper", "reply", 0)
	assert.False(t, ok)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"yaml":      "not: [valid: yaml",
		"target":    "target: {crate: serenity}",
		"signature": "signatures: [{receiver: X, method: y, arg: -1, param: Z}]",
		"field":     "required_fields: {CreateEmbed: ['']}",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
