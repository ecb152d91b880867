package main

import (
	"fmt"
	"os"

	"github.com/zjrosen/stackline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stackline:", err)
		os.Exit(1)
	}
}
