package dashboard

import "sync"

type Source string

const (
	SourceAttention Source = "attention"
	SourceVoice     Source = "voice"
	SourceActivity  Source = "activity"
	SourceAgent     Source = "agent"
	SourceTools     Source = "tools"
)

var Sources = []Source{SourceAttention, SourceVoice, SourceActivity, SourceAgent, SourceTools}

// Liveness holds one flag per source equal to the outcome of its latest poll.
type Liveness struct {
	mu    sync.RWMutex
	flags map[Source]bool
}

func NewLiveness() *Liveness {
	return &Liveness{flags: make(map[Source]bool, len(Sources))}
}

// Observe records a poll outcome and returns the new flag.
func (l *Liveness) Observe(source Source, err error) bool {
	active := err == nil

	l.mu.Lock()
	l.flags[source] = active
	l.mu.Unlock()

	return active
}

func (l *Liveness) Active(source Source) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.flags[source]
}

// All reports every known source, inactive until its first successful poll.
func (l *Liveness) All() map[Source]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[Source]bool, len(Sources))
	for _, source := range Sources {
		result[source] = l.flags[source]
	}

	return result
}
