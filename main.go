package main

import (
	"os"

	"github.com/ChizhovVadim/takmatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
