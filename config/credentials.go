package config

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// Credentials authenticate requests to the server. An empty Password means
// requests are sent without authentication.
type Credentials struct {
	Username string
	Password string
}

// Resolver finds the password for a configuration. Sources are tried in
// order: the prompt (when Prompt is set), the keyring, the password file
// and finally netrc. The first one that yields a password wins.
type Resolver struct {
	// Prompt asks for the password on the terminal. If Store is also set,
	// the password is saved in the keyring.
	Prompt bool
	Store  bool

	// AskPass reads passwords and passphrases. It defaults to AskPass.
	AskPass func(prompt string) ([]byte, error)
	// NetrcFile defaults to DefaultNetrcPath.
	NetrcFile string

	Logger *zap.Logger
}

// Resolve returns the credentials for cfg.
func (r *Resolver) Resolve(cfg *Config) (*Credentials, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	askPass := r.AskPass
	if askPass == nil {
		askPass = AskPass
	}

	creds := &Credentials{Username: cfg.Username}

	if r.Prompt {
		b, err := askPass(fmt.Sprintf("Password for %v", keyringAccount(cfg.Username, cfg.URL)))
		if err != nil {
			return nil, fmt.Errorf("config: reading password: %w", err)
		}
		creds.Password = string(b)
		if r.Store {
			if err := StorePassword(cfg.Username, cfg.URL, creds.Password); err != nil {
				return nil, err
			}
			logger.Debug("stored password in keyring", zap.String("username", cfg.Username))
		}
		return creds, nil
	}

	if cfg.Keyring {
		password, err := LookupPassword(cfg.Username, cfg.URL)
		if err != nil {
			return nil, err
		}
		if password != "" {
			logger.Debug("using keyring password", zap.String("username", cfg.Username))
			creds.Password = password
			return creds, nil
		}
		logger.Debug("no keyring password", zap.String("username", cfg.Username))
	}

	if cfg.PasswordFile != "" {
		password, err := DecryptPasswordFile(cfg.PasswordFile, &Keys{
			IdentityFile:  cfg.IdentityFile,
			SecretKeyring: cfg.SecretKeyring,
			AskPass:       askPass,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("using password file", zap.String("path", cfg.PasswordFile))
		creds.Password = password
		return creds, nil
	}

	if cfg.Netrc {
		path := r.NetrcFile
		if path == "" {
			path = DefaultNetrcPath
		}
		filename, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("config: expanding %q: %w", path, err)
		}
		login, password, err := netrcLogin(filename, cfg.URL)
		if err != nil {
			return nil, err
		}
		if creds.Username == "" {
			creds.Username = login
		}
		logger.Debug("using netrc", zap.String("path", filename))
		creds.Password = password
	}

	return creds, nil
}
