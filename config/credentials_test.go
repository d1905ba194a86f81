package config

import (
	"errors"
	"path/filepath"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func staticPass(password string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) {
		return []byte(password), nil
	}
}

func failPass(t *testing.T) func(string) ([]byte, error) {
	return func(prompt string) ([]byte, error) {
		t.Errorf("unexpected prompt %q", prompt)
		return nil, errors.New("unexpected prompt")
	}
}

func TestResolver_prompt(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StorePassword("alice", testURL, "from-keyring"))

	cfg := &Config{URL: testURL, Username: "alice", Keyring: true}
	r := &Resolver{Prompt: true, AskPass: staticPass("typed")}
	creds, err := r.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Username: "alice", Password: "typed"}, creds)

	password, err := LookupPassword("alice", testURL)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", password, "keyring changed without Store")

	r.Store = true
	_, err = r.Resolve(cfg)
	require.NoError(t, err)
	password, err = LookupPassword("alice", testURL)
	require.NoError(t, err)
	assert.Equal(t, "typed", password)

	r.AskPass = func(string) ([]byte, error) { return nil, errors.New("no tty") }
	_, err = r.Resolve(cfg)
	assert.ErrorContains(t, err, "no tty")
}

func TestResolver_keyring(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StorePassword("alice", testURL, "from-keyring"))

	cfg := &Config{URL: testURL, Username: "alice", Keyring: true, PasswordFile: "/nonexistent.age"}
	creds, err := (&Resolver{AskPass: failPass(t)}).Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", creds.Password)
}

func TestResolver_passwordFile(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	identityFile := filepath.Join(dir, "identity.txt")
	writeFile(t, identityFile, id.String()+"\n")
	passwordFile := filepath.Join(dir, "password.age")
	writeFile(t, passwordFile, string(ageEncrypt(t, id.Recipient(), "from-file\n", true)))

	cfg := &Config{
		URL:          testURL,
		Username:     "alice",
		Keyring:      true,
		PasswordFile: passwordFile,
		IdentityFile: identityFile,
	}
	creds, err := (&Resolver{AskPass: failPass(t)}).Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Username: "alice", Password: "from-file"}, creds)
}

func TestResolver_netrc(t *testing.T) {
	dir := t.TempDir()
	netrcFile := filepath.Join(dir, "netrc")
	writeFile(t, netrcFile, `machine other.example.com
  login mallory
  password nope

machine dav.example.com
  login alice
  password from-netrc
`)

	r := &Resolver{AskPass: failPass(t), NetrcFile: netrcFile}

	creds, err := r.Resolve(&Config{URL: testURL, Netrc: true})
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Username: "alice", Password: "from-netrc"}, creds)

	creds, err = r.Resolve(&Config{URL: testURL, Username: "bob", Netrc: true})
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Username: "bob", Password: "from-netrc"}, creds)

	_, err = r.Resolve(&Config{URL: "https://unknown.example.com/", Netrc: true})
	assert.ErrorContains(t, err, "no entry")
}

func TestResolver_none(t *testing.T) {
	creds, err := (&Resolver{AskPass: failPass(t)}).Resolve(&Config{URL: testURL, Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, &Credentials{Username: "alice"}, creds)
}
