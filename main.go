package main

import (
	"github.com/foomo/snapshotstore/cmd"
)

func main() {
	cmd.Execute()
}
