// Package tools picks the most urgent intervention the agent reports as active.
package tools

type ToolID string

const (
	SoruyaGoreAnalizYap    ToolID = "SoruyaGoreAnalizYap"
	ZihinYorgunluguTahmini ToolID = "ZihinYorgunluguTahmini"
	MolaOnerisi            ToolID = "MolaOnerisi"
	DikkatUyarisi          ToolID = "DikkatUyarisi"
	OgrenmePeriyoduOnerisi ToolID = "OgrenmePeriyoduOnerisi"
	OgrenmeTarziTahmini    ToolID = "OgrenmeTarziTahmini"
	OturumOzeti            ToolID = "OturumOzeti"
	SesOzetPDF             ToolID = "SesOzetPDF"
)

// UnknownPriority ranks tools missing from the table last.
const UnknownPriority = 99

// lower is more urgent
var priorities = map[ToolID]int{
	SoruyaGoreAnalizYap:    1,
	ZihinYorgunluguTahmini: 2,
	MolaOnerisi:            3,
	DikkatUyarisi:          4,
	OgrenmePeriyoduOnerisi: 5,
	OgrenmeTarziTahmini:    6,
	OturumOzeti:            7,
	SesOzetPDF:             8,
}

type Result struct {
	Tool     ToolID `json:"tool"`
	Priority int    `json:"priority"`
}

func PriorityOf(tool ToolID) int {
	if priority, ok := priorities[tool]; ok {
		return priority
	}

	return UnknownPriority
}

// Resolve returns the most urgent tool, the earliest one on ties, or nil for
// an empty input.
func Resolve(active []ToolID) *Result {
	var best *Result

	for _, tool := range active {
		priority := PriorityOf(tool)
		if best == nil || priority < best.Priority {
			best = &Result{Tool: tool, Priority: priority}
		}
	}

	return best
}
