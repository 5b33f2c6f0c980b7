package main

import "decompdesk/internal/cli"

func main() {
	cli.Execute()
}
