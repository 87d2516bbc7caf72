package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"a=1", "b=x=y", "c="}, "param")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, got)
}

func TestParseKeyValues_Invalid(t *testing.T) {
	_, err := parseKeyValues([]string{"noequals"}, "param")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--param")

	_, err = parseKeyValues([]string{"=value"}, "header")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}

func TestParseKeyValues_Empty(t *testing.T) {
	got, err := parseKeyValues(nil, "param")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuildPayload(t *testing.T) {
	payload, err := buildPayload(`{"name": "x", "n": 2}`, nil)
	require.NoError(t, err)
	m, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", m["name"])

	payload, err = buildPayload("", []string{"a=1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, payload)

	payload, err = buildPayload("", nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	_, err = buildPayload("{broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --data")
}

func TestFlagAlias(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var value string
	fs.StringVar(&value, "output", "text", "")
	flagAlias(fs, "output", "out")

	require.NoError(t, fs.Parse([]string{"--out", "json"}))
	assert.Equal(t, "json", value)
	assert.True(t, fs.Changed("output"), "alias must mark the canonical flag as changed")

	alias := fs.Lookup("out")
	require.NotNil(t, alias)
	assert.True(t, alias.Hidden)
	assert.Equal(t, []string{"output"}, alias.Annotations["alias-of"])
}

func TestFlagAlias_UnknownFlagPanics(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.Panics(t, func() { flagAlias(fs, "nope", "n") })
}
