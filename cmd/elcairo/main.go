package main

import (
	_ "time/tzdata"

	"github.com/pfrederiksen/elcairo-events/internal/cli"
)

func main() {
	cli.Execute()
}
