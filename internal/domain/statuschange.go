package domain

import "time"

type StatusMode string

const (
	StatusClosed  StatusMode = "closed"
	StatusOpen    StatusMode = "open"
	StatusPresale StatusMode = "presale"
)

func (m StatusMode) Valid() bool {
	switch m {
	case StatusClosed, StatusOpen, StatusPresale:
		return true
	}
	return false
}

// StatusChange is one ledger entry. The ledger partitions time into half-open
// intervals; an interval carries the mode of the change that starts it, and
// only open intervals advance event time.
type StatusChange struct {
	ID         string
	At         time.Time
	Mode       StatusMode
	Comment    string
	PublicInfo string
}
