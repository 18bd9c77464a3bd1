package main

import (
	"github.com/mchmarny/predictr/pkg/cli"
)

func main() {
	cli.Execute()
}
