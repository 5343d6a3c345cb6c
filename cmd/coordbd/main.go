// Command coordbd is the process-model CLI surface: each invocation is one
// context, analogous to a browser tab or worker opening the logical
// instance via Options/Open.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
