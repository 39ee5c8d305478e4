package main

import "github.com/plotloom/plotloom-cli/cmd"

func main() {
	cmd.Execute()
}
