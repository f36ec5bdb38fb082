// Command catalogctl checks plan catalogs and form payloads offline, using the
// same code paths as the API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
