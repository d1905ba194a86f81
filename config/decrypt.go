package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	agearmor "filippo.io/age/armor"
	"github.com/ProtonMail/go-crypto/openpgp"
	pgparmor "github.com/ProtonMail/go-crypto/openpgp/armor"
)

// maxPasswordSize bounds the decrypted content of a password file.
const maxPasswordSize = 64 * 1024

// Keys locates the secrets needed to decrypt a password file.
type Keys struct {
	// IdentityFile holds age identities, one per line.
	IdentityFile string
	// SecretKeyring holds OpenPGP secret keys, armored or binary.
	SecretKeyring string
	// AskPass is called for the passphrase of a protected OpenPGP key or
	// of a symmetrically encrypted file.
	AskPass func(prompt string) ([]byte, error)
}

// DecryptPasswordFile decrypts the password stored in the file at path.
// Files ending in ".age" are age-encrypted; anything else is an OpenPGP
// message. Trailing newlines are removed from the password.
func DecryptPasswordFile(path string, keys *Keys) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("config: opening password file: %w", err)
	}
	defer f.Close()

	var r io.Reader
	if filepath.Ext(path) == ".age" {
		r, err = decryptAge(f, keys)
	} else {
		r, err = decryptPGP(f, keys)
	}
	if err != nil {
		return "", fmt.Errorf("config: decrypting %v: %w", path, err)
	}

	b, err := io.ReadAll(io.LimitReader(r, maxPasswordSize))
	if err != nil {
		return "", fmt.Errorf("config: decrypting %v: %w", path, err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// peekArmor reports whether r starts with header, leaving r unread.
func peekArmor(r *bufio.Reader, header string) bool {
	b, _ := r.Peek(len(header))
	return bytes.Equal(b, []byte(header))
}

func decryptAge(f io.Reader, keys *Keys) (io.Reader, error) {
	idf, err := os.Open(keys.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer idf.Close()

	identities, err := age.ParseIdentities(idf)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %v: %w", keys.IdentityFile, err)
	}

	br := bufio.NewReader(f)
	var r io.Reader = br
	if peekArmor(br, agearmor.Header) {
		r = agearmor.NewReader(br)
	}
	return age.Decrypt(r, identities...)
}

func decryptPGP(f io.Reader, keys *Keys) (io.Reader, error) {
	keyring, err := readKeyRing(keys.SecretKeyring)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	var r io.Reader = br
	if peekArmor(br, "-----BEGIN PGP MESSAGE-----") {
		block, err := pgparmor.Decode(br)
		if err != nil {
			return nil, err
		}
		r = block.Body
	}

	md, err := openpgp.ReadMessage(r, keyring, passphrasePrompt(keys.AskPass), nil)
	if err != nil {
		return nil, err
	}
	return md.UnverifiedBody, nil
}

// readKeyRing reads an OpenPGP keyring. A missing keyring is empty, which
// still allows symmetrically encrypted files.
func readKeyRing(path string) (openpgp.EntityList, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("opening secret keyring: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var keyring openpgp.EntityList
	if peekArmor(br, "-----BEGIN ") {
		keyring, err = openpgp.ReadArmoredKeyRing(br)
	} else {
		keyring, err = openpgp.ReadKeyRing(br)
	}
	if err != nil {
		return nil, fmt.Errorf("reading secret keyring %v: %w", path, err)
	}
	return keyring, nil
}

func passphrasePrompt(askPass func(string) ([]byte, error)) openpgp.PromptFunction {
	tried := false
	return func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if tried {
			return nil, errors.New("incorrect passphrase")
		}
		tried = true
		if askPass == nil {
			return nil, errors.New("passphrase required")
		}

		if symmetric {
			return askPass("Passphrase")
		}

		passphrase, err := askPass(fmt.Sprintf("Passphrase for key %X", keys[0].PublicKey.KeyId))
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if k.PrivateKey != nil && k.PrivateKey.Encrypted {
				// Keys that don't unlock are skipped by ReadMessage.
				_ = k.PrivateKey.Decrypt(passphrase)
			}
		}
		return nil, nil
	}
}
