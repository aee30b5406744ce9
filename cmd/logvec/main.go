package main

import "github.com/relnote/logvec/internal/cli"

func main() {
	cli.Execute()
}
