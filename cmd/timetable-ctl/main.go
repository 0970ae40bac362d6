package main

import (
	"os"

	"tarediiran-industries.com/bus-timetable/internal/cmd"
	"tarediiran-industries.com/bus-timetable/internal/common"
)

func main() {
	common.SetupLogging(os.Stderr)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
