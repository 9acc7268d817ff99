// cmd/chunkfold-distinct/main.go
package main

import (
	"chunkfold/internal/appshell"
	"chunkfold/internal/distinctapp"
)

func main() {
	appshell.Main(distinctapp.RunContext)
}
