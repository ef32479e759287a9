package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/John-Robertt/pacservice-go/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; anything else (bad flags, wrong
	// argument count) has not been printed yet.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprintln(os.Stderr, "Run 'pacservice --help' for usage.")
	}
	os.Exit(cli.GetExitCode(err))
}
