package slots

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// Finder looks up alternatives for a slot that could not be booked.
type Finder struct {
	source  Source
	metrics Metrics
}

// NewFinder returns a Finder. metrics may be nil.
func NewFinder(source Source, metrics Metrics) *Finder {
	return &Finder{source: source, metrics: metrics}
}

// FindAlternativeSlots is Finder.Find without metrics.
func FindAlternativeSlots(ctx context.Context, source Source, facilityID, date, requestedRange string) []SlotSuggestion {
	return NewFinder(source, nil).Find(ctx, facilityID, date, requestedRange)
}

// Find returns up to MaxAlternatives available slots at the facility on the
// date, closest start time first. Lookup failures yield an empty result.
func (f *Finder) Find(ctx context.Context, facilityID, date, requestedRange string) []SlotSuggestion {
	available, err := f.source.FetchAvailableSlots(ctx, facilityID, date)
	if err != nil {
		log.Warn("Slot lookup failed, returning no alternatives", "facility_id", facilityID, "date", date, "error", err)
		if f.metrics != nil {
			f.metrics.IncSlotLookupFailures()
		}
		return []SlotSuggestion{}
	}
	return RankAlternatives(requestedRange, available)
}

// RankAlternatives orders available slots by the distance between their
// start time and the requested one and keeps the closest MaxAlternatives.
// Slots with an unparseable range or a non-available status are skipped.
func RankAlternatives(requestedRange string, available []SlotRecord) []SlotSuggestion {
	out := []SlotSuggestion{}

	requested, err := ParseStartMinutes(requestedRange)
	if err != nil {
		log.Warn("Unparseable requested range", "range", requestedRange, "error", err)
		return out
	}

	for _, s := range available {
		if s.Status != "" && s.Status != StatusAvailable {
			continue
		}
		start, err := ParseStartMinutes(s.TimeRange)
		if err != nil {
			log.Debug("Skipping slot", "court_id", s.CourtID, "range", s.TimeRange, "error", err)
			continue
		}
		out = append(out, SlotSuggestion{
			FacilityID:  s.FacilityID,
			CourtID:     s.CourtID,
			Date:        s.Date,
			TimeRange:   s.TimeRange,
			DiffMinutes: abs(start - requested),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DiffMinutes < out[j].DiffMinutes
	})
	if len(out) > MaxAlternatives {
		out = out[:MaxAlternatives]
	}
	return out
}

// ParseStartMinutes returns the minutes since midnight of the HH:MM prefix
// of a time range.
func ParseStartMinutes(timeRange string) (int, error) {
	start, _, _ := strings.Cut(strings.TrimSpace(timeRange), "-")
	hh, mm, ok := strings.Cut(strings.TrimSpace(start), ":")
	if !ok {
		return 0, fmt.Errorf("time range %q has no HH:MM start", timeRange)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", timeRange)
	}
	// Tolerate a seconds suffix, as in HH:MM:SS.
	if len(mm) > 2 {
		mm = mm[:2]
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", timeRange)
	}
	return h*60 + m, nil
}

// FormatRange renders a start in minutes and a duration as HH:MM-HH:MM.
func FormatRange(startMinutes, durationMinutes int) string {
	end := startMinutes + durationMinutes
	return fmt.Sprintf("%02d:%02d-%02d:%02d", startMinutes/60, startMinutes%60, end/60%24, end%60)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
