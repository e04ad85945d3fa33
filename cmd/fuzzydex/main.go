package main

import "fuzzydex/internal/cli"

func main() {
	cli.Execute()
}
