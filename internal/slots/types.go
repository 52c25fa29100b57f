package slots

import "context"

// Status of a court slot.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
	StatusBlocked   Status = "blocked"
)

// MaxAlternatives caps the number of suggestions returned.
const MaxAlternatives = 3

// SlotRecord is one bookable court slot. Date is YYYY-MM-DD and TimeRange is
// HH:MM-HH:MM.
type SlotRecord struct {
	FacilityID string `json:"facility_id"`
	CourtID    string `json:"court_id"`
	Date       string `json:"date"`
	TimeRange  string `json:"time_range"`
	Status     Status `json:"status"`
}

// SlotSuggestion is an alternative slot close to a requested one.
type SlotSuggestion struct {
	FacilityID  string  `json:"facility_id"`
	CourtID     string  `json:"court_id"`
	Date        string  `json:"date"`
	TimeRange   string  `json:"time_range"`
	DistanceKm  float64 `json:"distance_km"`
	DiffMinutes int     `json:"diff_minutes"`
}

// Source returns the available slots for a facility on a date.
type Source interface {
	FetchAvailableSlots(ctx context.Context, facilityID, date string) ([]SlotRecord, error)
}

// Metrics is the subset of metrics the finder reports to.
type Metrics interface {
	IncSlotLookupFailures()
}
