// Package schedule reads timetable data from the spreadsheet-backed web
// endpoint. One GET is issued per direction; the JSON envelope is returned
// as delivered, without any transformation.
package schedule
