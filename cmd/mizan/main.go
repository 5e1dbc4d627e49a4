// Package main is the single-binary entrypoint for Mizan.
package main

import "github.com/mizan-app/mizan/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
