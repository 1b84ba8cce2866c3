package model

import (
	"fmt"
	"time"
)

// JobRecord describes a one-off remote job cloned from a schedule
// definition.
type JobRecord struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"` // schedule definition the job was cloned from
	Status    string    `json:"status"` // Submitted / Complete / Failed
}

// ManualJobName derives the one-off job name from its schedule
// definition. The wall-clock timestamp keeps names unique per dispatch;
// second resolution is sufficient for manual triggers.
func ManualJobName(schedule string, at time.Time) string {
	return fmt.Sprintf("%s-manual-%s", schedule, at.UTC().Format("20060102150405"))
}
