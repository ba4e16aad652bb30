package tools

import (
	"sync"

	"github.com/elliotchance/pie/v2"
)

// Tracker resolves every poll from scratch and reports only changes of the
// selected tool.
type Tracker struct {
	// notifyMu orders compare, store and callback of overlapping polls, so
	// the last callback always matches the stored result.
	notifyMu sync.Mutex

	mu       sync.Mutex
	last     *Result
	onChange func(*Result)
}

func NewTracker(onChange func(*Result)) *Tracker {
	return &Tracker{onChange: onChange}
}

// Observe resolves the raw tool names of one poll and returns the result.
func (t *Tracker) Observe(names []string) *Result {
	result := Resolve(pie.Map(names, func(name string) ToolID {
		return ToolID(name)
	}))

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	changed := !sameTool(result, t.last)
	t.last = result
	t.mu.Unlock()

	if changed && t.onChange != nil {
		t.onChange(result)
	}

	return result
}

func (t *Tracker) Current() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last == nil {
		return nil
	}

	result := *t.last
	return &result
}

func sameTool(a, b *Result) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Tool == b.Tool
}
