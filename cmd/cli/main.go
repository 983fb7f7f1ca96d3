package main

import (
	"os"

	"github.com/thisisjab/jitsoql/config"
)

func main() {
	logger, err := config.NewLogger(config.LoggerConfig{Level: "info", Type: "colored-text", Output: "stderr"})
	if err != nil {
		panic(err)
	}

	if err := newRootCmd().Execute(); err != nil {
		logger.Error("command failed.", "error", err)
		os.Exit(1)
	}
}
