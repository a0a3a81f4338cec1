package main

import (
	"fmt"
	"os"

	"github.com/coreline-ai/talk-codex-gemini/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
