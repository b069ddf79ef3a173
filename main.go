package main

import (
	"fmt"
	"os"

	"stamps-catalog/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31m[ERROR]\033[0m %v\n", err)
		os.Exit(1)
	}
}
