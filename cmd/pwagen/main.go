package main

import (
	"context"
	"os"

	"github.com/pwaspark/pwagen/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
