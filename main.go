package main

import (
	"github.com/dreamerjackson/extractra/cmd"
)

func main() {
	cmd.Execute()
}
