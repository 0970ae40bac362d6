package main

import (
	"os"

	"tarediiran-industries.com/bus-timetable/internal/archive"
)

func main() {
	os.Exit(archive.Main(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}
