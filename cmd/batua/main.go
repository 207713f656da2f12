// Command batua is the Batua finance core: the HTTP API plus terminal
// tax and budget calculators.
package main

import "github.com/Maanicadatta/Batua/cli"

func main() {
	cli.Execute()
}
