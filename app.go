package main

import (
	"github.com/masmgr/tfs2git/cmd"
)

func main() {
	cmd.Run()
}
