package main

import "docsort/cmd/docsort-cli/cmd"

func main() {
	cmd.Execute()
}
