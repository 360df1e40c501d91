package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// GitCommit is set via ldflags at build time.
var GitCommit = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := NewRootCmd(GitCommit).ExecuteContext(ctx); err != nil {
		logrus.Errorf("%s", err)
		os.Exit(1)
	}
}
