// Command ollamacmd runs "/ollama" chat commands against a local ollama
// binary: one-shot from the shell, interactively from a console, or behind
// an HTTP bridge.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
