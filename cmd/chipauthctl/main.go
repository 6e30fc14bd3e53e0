// Command chipauthctl drives the chip-authorized mint/claim/transfer
// pipeline from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/chimpdao/chipauth/cmd/chipauthctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
