package main

import (
	"github.com/uncovr/unc/internal/cli"
	"github.com/uncovr/unc/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
