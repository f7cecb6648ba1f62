package main

import (
	"github.com/lissants/berkaraoke/cmd"
)

func main() {
	cmd.Execute()
}
