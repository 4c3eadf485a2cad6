package main

import (
	"springresolver.dev/cli/internal/interfaces/cli"
)

func main() {
	cli.Execute()
}
