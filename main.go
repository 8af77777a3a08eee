package main

import (
	"os"

	"github.com/slmtnm/s3nav/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
