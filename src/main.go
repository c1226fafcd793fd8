package main

import (
	"os"

	"jcc/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
