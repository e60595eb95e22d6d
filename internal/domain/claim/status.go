package claim

// Status represents a claim's position in its lifecycle
type Status string

const (
	StatusRegistered    Status = "registered"
	StatusInvestigating Status = "investigating"
	StatusAssessed      Status = "assessed"
	StatusApproved      Status = "approved"
	StatusSettled       Status = "settled"
	StatusRejected      Status = "rejected"
	StatusClosed        Status = "closed"
)

var validStatuses = map[Status]bool{
	StatusRegistered:    true,
	StatusInvestigating: true,
	StatusAssessed:      true,
	StatusApproved:      true,
	StatusSettled:       true,
	StatusRejected:      true,
	StatusClosed:        true,
}

var terminalStatuses = map[Status]bool{
	StatusRejected: true,
	StatusClosed:   true,
}

// AllStatuses returns every claim status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusRegistered,
		StatusInvestigating,
		StatusAssessed,
		StatusApproved,
		StatusSettled,
		StatusRejected,
		StatusClosed,
	}
}

// IsTerminal returns true if no further transitions are allowed from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known claim status
func (s Status) IsValid() bool {
	return validStatuses[s]
}
