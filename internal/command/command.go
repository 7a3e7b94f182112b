// Package command turns operator text into typed commands.
package command

// Command is one operator intent. The concrete types below are the only
// implementations.
type Command interface {
	command()
}

// Entry is a destination id with its interval in seconds.
type Entry struct {
	ID       int64
	Interval int
}

// Add registers new destinations.
type Add struct{ Entries []Entry }

// Update changes the interval of existing destinations.
type Update struct{ Entries []Entry }

// Delete removes destinations.
type Delete struct{ IDs []int64 }

// SetAll sets one interval for every destination. Raw is validated by the
// handler so that a bad value gets the set-all usage reply.
type SetAll struct{ Raw string }

// Send broadcasts the current post to every destination now.
type Send struct{}

// ListActive reports every destination with its chat title.
type ListActive struct{}

// ListCandidates reports recently seen groups.
type ListCandidates struct{}

// Help lists the available commands.
type Help struct{}

func (Add) command()            {}
func (Update) command()         {}
func (Delete) command()         {}
func (SetAll) command()         {}
func (Send) command()           {}
func (ListActive) command()     {}
func (ListCandidates) command() {}
func (Help) command()           {}
