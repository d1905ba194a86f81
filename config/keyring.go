package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = "com.github.t-brown.mcds"

func keyringAccount(username, url string) string {
	return username + "@" + url
}

// LookupPassword returns the password stored for username at url. It
// returns an empty string if there is none. An empty stored password is
// removed.
func LookupPassword(username, url string) (string, error) {
	account := keyringAccount(username, url)
	password, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("config: keyring lookup for %v: %w", account, err)
	}
	if password == "" {
		return "", ClearPassword(username, url)
	}
	return password, nil
}

// StorePassword saves password for username at url.
func StorePassword(username, url, password string) error {
	account := keyringAccount(username, url)
	if err := keyring.Set(KeyringService, account, password); err != nil {
		return fmt.Errorf("config: keyring store for %v: %w", account, err)
	}
	return nil
}

// ClearPassword removes the password stored for username at url, if any.
func ClearPassword(username, url string) error {
	account := keyringAccount(username, url)
	err := keyring.Delete(KeyringService, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("config: keyring delete for %v: %w", account, err)
	}
	return nil
}
