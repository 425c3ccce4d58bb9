package main

import (
	"context"

	"github.com/use-agent/courtsched/cmd/courtsched-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
