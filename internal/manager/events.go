package manager

// EventKind distinguishes the variants multiplexed onto a Manager's event
// channel.
type EventKind int

const (
	// EventOutput carries a chunk of raw child output to be fed to the
	// entry's Parser.
	EventOutput EventKind = iota
	// EventExited reports that a child has exited and been reaped by
	// Wait; ExitCode holds the code Wait returned.
	EventExited
)

// AppEvent is the single event type every child's reader and waiter
// goroutines emit. Gen pins the event to the process generation that
// produced it: Dispatch discards anything whose Gen no longer matches the
// entry's current generation, since the entry has since been restarted
// and the goroutine that sent it is stale. Kill does not change the
// generation, so a killed child's own exit event is still applied.
type AppEvent struct {
	Kind EventKind
	Name string
	Gen  int

	Bytes    []byte
	ExitCode int
}
