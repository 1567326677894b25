package domain

import "time"

// Rating is a 1-5 score one trip participant leaves for another after
// the trip completes. At most one rating exists per
// (trip, author, target) triple.
type Rating struct {
	ID        string
	TripID    string
	AuthorID  string
	TargetID  string
	Score     int
	Comment   string
	CreatedAt time.Time
}
