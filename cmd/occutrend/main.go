package main

import "github.com/occutrend/occutrend/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
