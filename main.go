// main is the entry point of the kmetrics CLI.
package main

import (
	"os"

	"github.com/huangsam/kmetrics/cmd"
	"github.com/huangsam/kmetrics/internal/contract"
	"github.com/huangsam/kmetrics/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()
	iocache.CloseCaching()
	if err != nil {
		contract.Log.WithError(err).Error("kmetrics failed")
		os.Exit(1)
	}
}
