package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LEXCITE_TOKENIZER_CACHE_DIR", filepath.Join(t.TempDir(), "plans"))
	t.Setenv("LEXCITE_LOG_LEVEL", "error")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFindText(t *testing.T) {
	out, err := run(t, "Foo v. Bar, 1 U.S. 2 (1999). Id. at 3.", "find")
	require.NoError(t, err)
	assert.Contains(t, out, "full_case")
	assert.Contains(t, out, "1 U.S. 2")
	assert.Contains(t, out, "2 citation(s)")
}

func TestFindJSON(t *testing.T) {
	out, err := run(t, "1 U.S. 2", "find", "--format", "json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "full_case", got[0]["kind"])
	assert.Equal(t, "1 U.S. 2", got[0]["text"])
}

func TestFindUnknownFormat(t *testing.T) {
	_, err := run(t, "1 U.S. 2", "find", "--format", "xml")
	assert.Error(t, err)
}

func TestResolveText(t *testing.T) {
	out, err := run(t, "1 U.S. 2. Id. at 3. See § 4. Id. at 5.", "resolve")
	require.NoError(t, err)
	assert.Contains(t, out, "case:1|U.S.|2")
	assert.Contains(t, out, "(unresolved)")
}

func TestAnnotateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opinion.txt")
	require.NoError(t, os.WriteFile(path, []byte("See 1 U.S. 2."), 0600))

	out, err := run(t, "", "annotate", "--before", "[{kind}:", "--after", "]", path)
	require.NoError(t, err)
	assert.Equal(t, "See [full_case:1 U.S. 2].", out)
}

func TestClean(t *testing.T) {
	out, err := run(t, "<p>Foo   bar</p>", "clean", "--steps", "html,inline_whitespace")
	require.NoError(t, err)
	assert.Contains(t, out, "Foo bar")
	assert.NotContains(t, out, "<p>")

	_, err = run(t, "x", "clean", "--steps", "nope")
	assert.Error(t, err)
}

func TestGrammarInfo(t *testing.T) {
	out, err := run(t, "", "grammar", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "embedded")
	assert.Contains(t, out, "Fingerprint:")
}

func TestGrammarValidateMissingDir(t *testing.T) {
	_, err := run(t, "", "grammar", "validate", filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}

func TestCacheWarmAndClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plans")
	t.Setenv("LEXCITE_TOKENIZER_CACHE_DIR", dir)

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cache", "warm"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Warmed 2 plan(s)")

	cmd = rootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cache", "clear"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Removed 2 plan(s)")
}

func TestAnnotateStatuteLinks(t *testing.T) {
	out, err := run(t, "See 42 U.S.C. § 1983 and 1 U.S. 2.",
		"annotate", "--kinds", "full_law", "--before", `<a href="{url}">`, "--after", "</a>")
	require.NoError(t, err)
	assert.Equal(t, `See <a href="https://uscode.house.gov/view.xhtml?req=granuleid:USC-prelim-title42-section1983&edition=prelim">42 U.S.C. § 1983</a> and 1 U.S. 2.`, out)
}
