// cmd/chunkfold/main.go
package main

import (
	"chunkfold/internal/app"
	"chunkfold/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
