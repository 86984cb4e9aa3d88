package main

import "github.com/ruthwikreddy07/pm-console/cmd/pm-console/commands"

func main() {
	commands.Execute()
}
