package main

import (
	"os"

	"github.com/grovetools/ras/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
