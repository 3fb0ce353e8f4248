// Command ordq queries an Open Reaction Database PostgreSQL store and serves
// the query API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/garrett-reinhard/ord-interface/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own errors; only flag and usage errors
		// reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
