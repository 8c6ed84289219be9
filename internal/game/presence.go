package game

import (
	"time"

	"chiptable/internal/store"

	"github.com/samber/lo"
)

const DefaultPresenceTimeout = 30 * time.Second

// Presence derives whether a seat is effectively online. The stored flag
// alone is not trusted: a seat whose last heartbeat is older than Timeout
// counts as offline even if no one has cleared the flag.
type Presence struct {
	Timeout time.Duration
}

func (p Presence) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultPresenceTimeout
	}
	return p.Timeout
}

func (p Presence) Online(s store.Seat, now time.Time) bool {
	return s.Seated && s.Online && now.Sub(s.LastSeen) <= p.timeout()
}

// CountOnline counts the seats of a table that occupy capacity, skipping
// excludeID.
func (p Presence) CountOnline(seats []store.Seat, excludeID string, now time.Time) int {
	return lo.CountBy(seats, func(s store.Seat) bool {
		return s.ID != excludeID && p.Online(s, now)
	})
}
