package knownbots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsCompile(t *testing.T) {
	var d *Detector
	assert.NotPanics(t, func() { d = Defaults() })
	require.NotNil(t, d)
	assert.NotEmpty(t, d.rules)
}

func TestDefaultsMatchGooglebotPTR(t *testing.T) {
	d := Defaults()

	name, ok := d.Match("crawl-66-249-66-1.googlebot.com")
	require.True(t, ok)
	assert.Equal(t, "Googlebot", name)

	name, ok = d.Match("fetcher-1.search.msn.com.")
	require.True(t, ok)
	assert.Equal(t, "Bingbot", name)

	_, ok = d.Match("ec2-3-8-1-2.eu-west-2.compute.amazonaws.com")
	assert.False(t, ok)

	_, ok = d.Match("")
	assert.False(t, ok)
}

func TestNilDetectorNeverMatches(t *testing.T) {
	var d *Detector
	_, ok := d.Match("crawl.googlebot.com")
	assert.False(t, ok)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.yaml")
	data := "- name: TestBot\n  regex: testbot\\.example$\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	d, err := Load(path)
	require.NoError(t, err)

	name, ok := d.Match("node-3.TESTBOT.example")
	require.True(t, ok, "matching is case-insensitive")
	assert.Equal(t, "TestBot", name)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.json")
	data := `[{"name":"JBot","regex":"jbot\\.example$"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	d, err := Load(path)
	require.NoError(t, err)
	_, ok := d.Match("a.jbot.example")
	assert.True(t, ok)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestCompileRejectsBadRegex(t *testing.T) {
	_, err := Compile([]Rule{{Name: "bad", Regex: "("}})
	assert.Error(t, err)
}
