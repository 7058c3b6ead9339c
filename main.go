package main

import "github.com/tbarret/wagerbook/cmd"

func main() {
	cmd.Execute()
}
