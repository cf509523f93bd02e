// Package routing decides how a pushed notification presents itself:
// routine task traffic stays silent, emergencies vibrate and re-alert.
package routing

const (
	// TagNormal groups routine notifications so repeats collapse quietly.
	TagNormal = "normal-notification"
	// TagUrgent groups urgent notifications; with Renotify set, a repeat
	// under this tag alerts again even while the previous one is showing.
	TagUrgent = "urgent-notification"
)

// DisplayOptions are the OS-notification options derived from urgency.
type DisplayOptions struct {
	Silent    bool
	Vibration []int
	Renotify  bool
	Tag       string
}

// Options maps the urgency flag to display options. Routine operational
// noise must not interrupt staff; true emergencies must re-alert even if a
// same-tagged notification is still showing.
func Options(urgent bool) DisplayOptions {
	if urgent {
		return DisplayOptions{
			Silent:    false,
			Vibration: []int{200, 100, 200},
			Renotify:  true,
			Tag:       TagUrgent,
		}
	}
	return DisplayOptions{
		Silent:    true,
		Vibration: nil,
		Renotify:  false,
		Tag:       TagNormal,
	}
}
