package tui

// streamEvent is one item from the generation goroutine: a delta while the
// reply is in flight, then a final event with done set.
type streamEvent struct {
	delta   string
	done    bool
	content string
	err     error
}

type streamDeltaMsg struct {
	text string
}

type streamDoneMsg struct {
	content string
	err     error
}

type chartOutcome struct {
	index int
	path  string
	title string
	err   error
}

type chartsDoneMsg struct {
	content string
	results []chartOutcome
}

type persistDoneMsg struct {
	err error
}
