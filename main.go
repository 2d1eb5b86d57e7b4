package main

import (
	"os"

	"github.com/pgprism/pgprism/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
