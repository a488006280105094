package main

import "boardify-api/boardctl/commands"

func main() {
	commands.Execute()
}
