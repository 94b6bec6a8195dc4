package main

import "github.com/stabla/syntegrity/synt/cli"

func main() {
	cli.Execute()
}
