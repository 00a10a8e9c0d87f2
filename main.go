// The main package for the jobradar executable.
package main

import (
	"jobradar/cmd"
)

func main() {
	cmd.Execute()
}
