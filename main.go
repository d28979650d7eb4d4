package main

import "github.com/elec-mate/elecmate/internal/commands"

func main() {
	commands.Execute()
}
