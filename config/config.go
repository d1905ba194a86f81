// Package config loads the mcds configuration and resolves the
// credentials used to reach the CardDAV server.
//
// The configuration file is a list of "key value" (or "key = value")
// lines; '#' starts a comment. Every key can be overridden by an MCDS_*
// environment variable, and url and username by command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "~/.mcdsrc"

const (
	defaultIdentityFile  = "~/.config/mcds/identity.txt"
	defaultSecretKeyring = "~/.gnupg/secring.asc"
	defaultTimeout       = 30 * time.Second
)

// Config holds the settings needed to search an address book.
type Config struct {
	URL      string
	Domain   string
	Username string

	// Verify enables TLS certificate verification.
	Verify bool
	// Netrc reads the username and password from ~/.netrc.
	Netrc bool
	// Keyring looks the password up in the system keyring.
	Keyring bool

	PasswordFile  string
	IdentityFile  string
	SecretKeyring string

	Timeout time.Duration
}

// flagKeys are the configuration keys that can be set from the command
// line. Flags that aren't defined in the flag set are ignored.
var flagKeys = []string{"url", "username"}

// Load reads the configuration file at path, applying the environment and
// flags on top of it. If path is empty, DefaultPath is used and a missing
// file is not an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("properties")
	v.SetEnvPrefix("MCDS")
	v.AutomaticEnv()

	v.SetDefault("verify", "yes")
	v.SetDefault("identity_file", defaultIdentityFile)
	v.SetDefault("secret_keyring", defaultSecretKeyring)
	v.SetDefault("timeout", defaultTimeout.String())

	if flags != nil {
		for _, key := range flagKeys {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: binding flag %q: %w", key, err)
				}
			}
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	filename, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: expanding %q: %w", path, err)
	}
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %v: %w", filename, err)
		}
	}

	cfg := &Config{
		URL:      strings.TrimSpace(v.GetString("url")),
		Domain:   strings.TrimSpace(v.GetString("domain")),
		Username: strings.TrimSpace(v.GetString("username")),
		Verify:   yes(v.GetString("verify")),
		Netrc:    yes(v.GetString("netrc")),
		// libsecret is the historical name of the keyring key.
		Keyring: yes(v.GetString("keyring")) || yes(v.GetString("libsecret")),
	}

	timeout := v.GetString("timeout")
	if cfg.Timeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("config: invalid timeout %q: %w", timeout, err)
	}

	paths := []struct {
		key string
		dst *string
	}{
		{"password_file", &cfg.PasswordFile},
		{"identity_file", &cfg.IdentityFile},
		{"secret_keyring", &cfg.SecretKeyring},
	}
	for _, p := range paths {
		s := strings.TrimSpace(v.GetString(p.key))
		if s == "" {
			continue
		}
		if *p.dst, err = homedir.Expand(s); err != nil {
			return nil, fmt.Errorf("config: expanding %v %q: %w", p.key, s, err)
		}
	}

	if cfg.Username == "" && !cfg.Netrc {
		cfg.Username = os.Getenv("USER")
	}

	return cfg, nil
}

// yes reports whether s is an affirmative value: anything starting with
// 'y' or 'Y', or a value accepted by strconv.ParseBool as true.
func yes(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == 'y' || s[0] == 'Y' {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
