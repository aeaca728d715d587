package main

import "github.com/mcoot/match3duel/internal/cli"

func main() {
	cli.Execute()
}
