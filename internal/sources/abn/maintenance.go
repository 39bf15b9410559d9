package abn

import (
	"fmt"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// AEST is the register's published maintenance timezone.
var AEST = time.FixedZone("AEST", 10*60*60)

// Window is a scheduled outage of the ABR web services.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DefaultMaintenanceWindows are the outages announced by the register.
var DefaultMaintenanceWindows = []Window{
	{
		Start: time.Date(2025, 8, 2, 21, 0, 0, 0, AEST),
		End:   time.Date(2025, 8, 3, 14, 0, 0, 0, AEST),
	},
	{
		Start: time.Date(2025, 8, 9, 21, 0, 0, 0, AEST),
		End:   time.Date(2025, 8, 10, 10, 0, 0, 0, AEST),
	},
}

// checkMaintenance fails with a SourceUnavailableError when now falls inside
// any window.
func checkMaintenance(windows []Window, now time.Time) error {
	for _, w := range windows {
		if w.Contains(now) {
			return errors.NewSourceUnavailableError(string(records.SourceABN), "", "",
				fmt.Errorf("ABR Service under maintenance until %s", w.End.In(AEST).Format("2006-01-02 15:04 AEST")))
		}
	}
	return nil
}
