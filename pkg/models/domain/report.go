package domain

import "time"

// Report is the renderable form of an analysis result for the terminal
// reporter: a titled set of sections with summary values and detail rows.
type Report struct {
	Title       string
	Period      TimePeriod
	Sections    []ReportSection
	TotalAmount float64
	Currency    string
}

type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
}

type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
