// Command campman manages a tabletop campaign file from the command line.
package main

import "github.com/mesh-intelligence/campman/internal/cli"

func main() {
	cli.Execute()
}
