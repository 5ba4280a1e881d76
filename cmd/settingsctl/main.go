package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mldkyt/go-settings/cmd/settingsctl/cmd"
)

// Version information, set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := cmd.NewRootCommand()
	root.Version = fmt.Sprintf("%s (%s)", version, commit)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
