package main

import "github.com/garyjia/broker-workflow/internal/cli"

func main() {
	cli.Execute()
}
