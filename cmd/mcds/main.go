// Command mcds searches a CardDAV address book and prints one field of the
// matching contacts, in the format expected by mutt's query_command.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
