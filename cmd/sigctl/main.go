package main

import (
	"github.com/inkwell-health/signature-relay/internal/cli"
)

func main() {
	cli.Execute()
}
