package main

import "focustimer/cmd/focus/commands"

func main() {
	commands.Execute()
}
