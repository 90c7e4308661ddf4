package inventory

import (
	"fmt"
	"time"
)

const (
	InvariantZoneCapacity = "zone_capacity"
	InvariantPartialBatch = "partial_issuance"
)

// ZoneCapacity is the capacity state of one event zone at a point in time.
// Held counts tickets that consume a place (VALID and USED). OnSale is set
// only while the event is published.
type ZoneCapacity struct {
	Allocated int
	Held      int
	Active    bool
	OnSale    bool
	EventEnd  time.Time
}

// Remaining returns allocated-held. A negative result means more tickets
// exist than the zone allows and is reported, never clamped.
func Remaining(allocated, held int) (int, error) {
	remaining := allocated - held
	if remaining < 0 {
		return 0, &InvariantViolationError{
			Invariant: InvariantZoneCapacity,
			Detail:    fmt.Sprintf("%d tickets held against allocated capacity %d", held, allocated),
		}
	}
	return remaining, nil
}

func (z ZoneCapacity) Remaining() (int, error) {
	return Remaining(z.Allocated, z.Held)
}

// CanAccommodate reports whether n more tickets, n at least 1, can be sold
// in the zone at now
func CanAccommodate(z ZoneCapacity, n int, now time.Time) (bool, error) {
	remaining, err := z.Remaining()
	if err != nil {
		return false, err
	}
	if n < 1 {
		return false, nil
	}
	return remaining >= n && z.Active && z.OnSale && now.Before(z.EventEnd), nil
}

// CheckAreaAllocation verifies that adding requested places to an area whose
// templates already claim allocated stays within areaMax.
func CheckAreaAllocation(area *Area, allocated, requested int) error {
	if allocated+requested > area.MaxCapacity {
		return &AreaCapacityExceededError{
			AreaID:    area.ID,
			AreaMax:   area.MaxCapacity,
			Allocated: allocated,
			Requested: requested,
		}
	}
	return nil
}
