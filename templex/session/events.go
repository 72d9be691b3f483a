package session

import "time"

type QueryStartedEvent struct {
	Query  string
	Params []any
}

type QueryEndedEvent struct {
	Query        string
	Params       []any
	ResponseTime time.Duration
	Err          error
}
