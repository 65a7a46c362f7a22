package main

import "github.com/ucanscrapex/eventsync/internal/cli"

func main() {
	cli.Execute()
}
