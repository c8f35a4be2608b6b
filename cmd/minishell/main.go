// cmd/minishell/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arc-language/minishell/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.Code(err))
}
