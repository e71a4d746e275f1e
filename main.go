package main

import "github.com/baseguide/baseguide/cmd"

func main() {
	cmd.Execute()
}
