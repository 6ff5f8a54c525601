package main

import (
	"log/slog"
	"os"

	"github.com/VladMinzatu/memlayout/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		slog.Error("memlayout failed", "error", err)
		os.Exit(1)
	}
}
