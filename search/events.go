package search

// EventKind identifies a progress event.
type EventKind int

const (
	// EventLevel is sent before a level is expanded. Level 0 is the start
	// directory scan.
	EventLevel EventKind = iota
	// EventList is sent before a directory is listed.
	EventList
	// EventListFailed is sent when a directory below the start could not
	// be listed and was skipped.
	EventListFailed
	// EventExcluded is sent for a directory skipped by the exclude matcher.
	EventExcluded
	// EventFound is sent once when the file is located.
	EventFound
	// EventDone is sent last, with Result or Err set.
	EventDone
)

// Event reports search progress. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind
	Level      int
	Path       string
	Candidates int
	Err        error
	Result     *Result
}

// Observer receives events. With a pool of listers it is called from several
// goroutines and must be safe for concurrent use.
type Observer func(Event)
