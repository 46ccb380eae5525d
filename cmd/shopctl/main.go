// Command shopctl drives the coffee shop from a terminal. Every invocation
// works on one profile of a local bolt file, the way a browser works on its
// own local storage.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stdout)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
