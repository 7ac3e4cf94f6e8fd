// The main package for the adscout executable.
package main

import (
	"github.com/mpopa/adscout/cmd"
)

func main() {
	cmd.Execute()
}
