package streak

import (
	"time"
)

// Un "jour actif" est un jour calendaire UTC avec au moins une entrée de
// progression, toutes participations confondues.

// Day tronque un instant au jour calendaire UTC
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance calcule les nouvelles valeurs de streak pour une activité au jour
// donné. Plusieurs activités le même jour ne changent rien ; un jour
// consécutif incrémente ; un trou repart à 1.
func Advance(lastActive *time.Time, activity time.Time, current, longest int) (newCurrent, newLongest int, changed bool) {
	day := Day(activity)

	if lastActive != nil {
		last := Day(*lastActive)
		switch {
		case day.Equal(last):
			return current, longest, false
		case day.Equal(last.AddDate(0, 0, 1)):
			newCurrent = current + 1
		default:
			newCurrent = 1
		}
	} else {
		newCurrent = 1
	}

	newLongest = longest
	if newCurrent > newLongest {
		newLongest = newCurrent
	}

	return newCurrent, newLongest, true
}
