package batch

import "time"

// FetchStarted is emitted before a round trip.
type FetchStarted struct {
	Requests int
}

// FetchEnded is emitted after a round trip, failed or not.
type FetchEnded struct {
	Requests int
	Entities int
	Duration time.Duration
	Err      error
}
