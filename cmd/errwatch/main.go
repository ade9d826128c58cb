package main

import "github.com/hawkly/errwatch/internal/cli"

func main() {
	cli.Execute()
}
