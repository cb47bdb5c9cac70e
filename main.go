package main

import (
	"os"

	"github.com/israelmalagutti/gee/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
