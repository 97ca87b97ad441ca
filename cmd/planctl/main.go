package main

import (
	"os"

	"github.com/arnavshah/capacity-planner-go/pkg/config"
)

func main() {
	config.LoadDotEnv()

	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}
