// Command plansql compiles query documents to dialect SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/plansql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
