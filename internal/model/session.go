package model

import "time"

// Session is an immutable record of one completed work interval. Date is
// the unique identity key; two sessions never share an equal Date after a
// merge.
type Session struct {
	Date     time.Time `json:"date"`
	Duration int       `json:"duration"`
	Label    string    `json:"label,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// SameDate reports whether two timestamps identify the same session.
func SameDate(a, b time.Time) bool {
	return a.Equal(b)
}

// Label is a user-defined session category. DurationMinutes, when positive,
// overrides the global work duration while the label is active. Sessions
// reference labels by ID; a deleted label leaves its sessions displaying as
// unlabeled.
type Label struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	DurationMinutes int    `json:"duration,omitempty"`
}
