package reminderqueue

// ReminderJob fires the reminder of one event. FireAt is part of the args so that
// uniqueness by args still allows re-arming a key once its earlier job completed.
type ReminderJob struct {
	Key    string `json:"key"`
	FireAt int64  `json:"fire_at"`
}

// Kind returns the job type identifier for River.
func (ReminderJob) Kind() string { return "roster_reminder" }

// JobInfo describes a queued reminder.
type JobInfo struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
}
