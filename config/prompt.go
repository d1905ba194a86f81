package config

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// AskPass reads a password from the terminal without echoing it. If
// standard input isn't a terminal, the controlling terminal is used.
func AskPass(prompt string) ([]byte, error) {
	f := os.Stdin
	if !term.IsTerminal(int(f.Fd())) {
		var err error
		if f, err = os.Open("/dev/tty"); err != nil {
			return nil, fmt.Errorf("config: no terminal to prompt on: %w", err)
		}
		defer f.Close()
	}
	fmt.Fprintf(os.Stderr, "%v: ", prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	if err == nil {
		fmt.Fprintf(os.Stderr, "\n")
	}
	return b, err
}
