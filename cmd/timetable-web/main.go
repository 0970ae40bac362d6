package main

import (
	"os"

	"tarediiran-industries.com/bus-timetable/internal/web/timetable_web"
)

func main() {
	os.Exit(timetable_web.Main(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}
