// Command chartgen renders the fixture charts: once from the command line, or as a
// service with an authenticated HTTP trigger and an optional cron schedule.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
