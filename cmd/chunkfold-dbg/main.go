// cmd/chunkfold-dbg/main.go
package main

import (
	"chunkfold/internal/appshell"
	"chunkfold/internal/dbgapp"
)

func main() {
	appshell.Main(dbgapp.RunContext)
}
