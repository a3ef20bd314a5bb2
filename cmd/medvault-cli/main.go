package main

import "medvault/cli/cmd"

func main() {
	cmd.Execute()
}
