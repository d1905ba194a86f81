package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setHome points the home directory at a fresh temporary directory.
func setHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const testRC = `# mcds configuration
url https://dav.example.com/addressbooks/alice/contacts/
username = alice
verify no
libsecret Yes
password_file ~/secret.age
timeout 5s
`

func TestLoad(t *testing.T) {
	home := setHome(t)
	writeFile(t, filepath.Join(home, ".mcdsrc"), testRC)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		URL:           "https://dav.example.com/addressbooks/alice/contacts/",
		Username:      "alice",
		Verify:        false,
		Keyring:       true,
		PasswordFile:  filepath.Join(home, "secret.age"),
		IdentityFile:  filepath.Join(home, ".config/mcds/identity.txt"),
		SecretKeyring: filepath.Join(home, ".gnupg/secring.asc"),
		Timeout:       5 * time.Second,
	}, cfg)
}

func TestLoad_defaults(t *testing.T) {
	setHome(t)
	t.Setenv("USER", "carol")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verify)
	assert.False(t, cfg.Netrc)
	assert.False(t, cfg.Keyring)
	assert.Equal(t, "carol", cfg.Username)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.URL)
	assert.Empty(t, cfg.PasswordFile)
}

func TestLoad_explicitMissing(t *testing.T) {
	home := setHome(t)
	_, err := Load(filepath.Join(home, "nope"), nil)
	assert.Error(t, err)
}

func TestLoad_netrcUsername(t *testing.T) {
	home := setHome(t)
	t.Setenv("USER", "carol")
	path := filepath.Join(home, "rc")
	writeFile(t, path, "netrc yes\nurl https://dav.example.com/\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Netrc)
	assert.Empty(t, cfg.Username)
}

func TestLoad_overrides(t *testing.T) {
	home := setHome(t)
	writeFile(t, filepath.Join(home, ".mcdsrc"), testRC)
	t.Setenv("MCDS_URL", "https://env.example.com/")
	t.Setenv("MCDS_USERNAME", "envuser")
	t.Setenv("MCDS_DOMAIN", "example.org")

	flags := pflag.NewFlagSet("mcds", pflag.ContinueOnError)
	flags.String("url", "", "")
	flags.String("username", "", "")
	require.NoError(t, flags.Parse([]string{"--username", "flaguser"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/", cfg.URL)
	assert.Equal(t, "flaguser", cfg.Username)
	assert.Equal(t, "example.org", cfg.Domain)
}

func TestLoad_invalidTimeout(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, "rc")
	writeFile(t, path, "timeout soon\n")

	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "invalid timeout")
}

func TestYes(t *testing.T) {
	for s, want := range map[string]bool{
		"":      false,
		"y":     true,
		"Yes":   true,
		"yep":   true,
		" y ":   true,
		"true":  true,
		"1":     true,
		"no":    false,
		"n":     false,
		"false": false,
		"0":     false,
		"maybe": false,
	} {
		assert.Equal(t, want, yes(s), "yes(%q)", s)
	}
}
