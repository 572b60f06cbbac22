// Package conflict flags bookings that overlap on the same room.  The result
// only drives a warning banner and a highlight on the affected bars; the PMS
// remains the authority on availability.
package conflict

import (
	"sort"

	"github.com/iliyamo/hotel-pms-console/internal/grid"
	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// Conflict describes one overlapping pair.  Booking1ID is always the booking
// that comes first in the room's ordering, so each pair is reported once.
type Conflict struct {
	RoomID       string     `json:"room_id"`
	Booking1ID   string     `json:"booking1_id"`
	Booking2ID   string     `json:"booking2_id"`
	OverlapStart model.Date `json:"overlap_start"`
	OverlapEnd   model.Date `json:"overlap_end"`
}

// Detect scans every room's active bookings pairwise.  Bookings within a room
// are ordered by check-in then id so the output is deterministic regardless
// of the order the PMS returned them in.  The scan is quadratic per room,
// which is fine for the few hundred bookings of a visible window.
func Detect(bookings []model.Booking) []Conflict {
	byRoom := make(map[string][]model.Booking)
	for _, b := range bookings {
		if b.RoomID == "" || !b.Active() {
			continue
		}
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	rooms := make([]string, 0, len(byRoom))
	for id := range byRoom {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)

	var out []Conflict
	for _, roomID := range rooms {
		list := byRoom[roomID]
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].CheckIn.Equal(list[j].CheckIn) {
				return list[i].CheckIn.Before(list[j].CheckIn)
			}
			return list[i].ID < list[j].ID
		})
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i], list[j]
				if !grid.Overlaps(a.CheckIn, a.CheckOut, b.CheckIn, b.CheckOut) {
					continue
				}
				out = append(out, Conflict{
					RoomID:       roomID,
					Booking1ID:   a.ID,
					Booking2ID:   b.ID,
					OverlapStart: model.MaxDate(a.CheckIn, b.CheckIn),
					OverlapEnd:   model.MinDate(a.CheckOut, b.CheckOut),
				})
			}
		}
	}
	return out
}

// Involved returns the set of booking ids that appear in any conflict.
func Involved(conflicts []Conflict) map[string]bool {
	set := make(map[string]bool, len(conflicts)*2)
	for _, c := range conflicts {
		set[c.Booking1ID] = true
		set[c.Booking2ID] = true
	}
	return set
}
