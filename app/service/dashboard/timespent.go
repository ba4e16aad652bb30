package dashboard

import (
	"math"

	"focuswatch/app/client/activity"

	"github.com/elliotchance/pie/v2"
)

type TimeSpentRow struct {
	Target  string  `json:"target"`
	Total   float64 `json:"total"`
	Hours   int     `json:"hours"`
	Minutes int     `json:"minutes"`
	Seconds int     `json:"seconds"`
	Percent int     `json:"percent"`
	Active  bool    `json:"active"`
}

// TimeSpentRows lists targets by time spent, longest first.
func TimeSpentRows(status activity.Status) []TimeSpentRow {
	if len(status.TimeSpent) == 0 {
		return []TimeSpentRow{}
	}

	total := 0.0
	for _, seconds := range status.TimeSpent {
		total += seconds
	}

	active := ""
	if status.CurrentActiveTarget != nil {
		active = *status.CurrentActiveTarget
	}

	rows := make([]TimeSpentRow, 0, len(status.TimeSpent))
	for _, target := range pie.Sort(pie.Keys(status.TimeSpent)) {
		seconds := status.TimeSpent[target]
		minutes := int(math.Floor(seconds / 60))

		percent := 0
		if total > 0 {
			percent = int(math.Round(seconds / total * 100))
		}

		rows = append(rows, TimeSpentRow{
			Target:  target,
			Total:   seconds,
			Hours:   minutes / 60,
			Minutes: minutes % 60,
			Seconds: int(math.Floor(math.Mod(seconds, 60))),
			Percent: percent,
			Active:  target == active,
		})
	}

	return pie.SortStableUsing(rows, func(a, b TimeSpentRow) bool {
		return a.Total > b.Total
	})
}
