package main

import (
	"github.com/md4h/prosedown/cmd"
)

func main() {
	cmd.Execute()
}
