// cmd/chunkfold-synth/main.go
package main

import (
	"chunkfold/internal/appshell"
	"chunkfold/internal/synthapp"
)

func main() {
	appshell.Main(synthapp.RunContext)
}
