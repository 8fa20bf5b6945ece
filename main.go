package main

import (
	"github.com/skylark-im/skylark/cmd"
)

func main() {
	cmd.Execute()
}
