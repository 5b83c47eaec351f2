package main

import (
	"os"

	"github.com/dshills/codeward/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
