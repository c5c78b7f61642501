package domain

import "time"

// Record is a persisted application. It is built once per successful
// submission and never changed afterwards.
type Record struct {
	ID string
	Draft
	Fee          float64
	IsDiscounted bool
	DocumentURL  *string
	Timestamp    time.Time
}

// Session keeps one applicant's draft between requests.
type Session struct {
	ID        string
	Draft     Draft
	Loading   bool
	Receipt   *Record
	UpdatedAt time.Time
}
