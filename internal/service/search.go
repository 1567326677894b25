package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"rumbo/internal/domain"
)

// TripFilter is the search criteria over a trip snapshot. Zero values
// mean "no constraint"; amenity flags, when set, are required (AND).
type TripFilter struct {
	Origin      string
	Destination string
	Date        string
	Amenities   domain.Amenities
}

// FilterTrips evaluates the filter over a trip snapshot. Pure and
// order-preserving: no side effects, no ranking.
func FilterTrips(trips []*domain.Trip, f TripFilter) []*domain.Trip {
	origin := foldText(f.Origin)
	destination := foldText(f.Destination)

	var out []*domain.Trip
	for _, trip := range trips {
		if !matchesTrip(trip, f, origin, destination) {
			continue
		}
		out = append(out, trip)
	}

	return out
}

func matchesTrip(trip *domain.Trip, f TripFilter, origin, destination string) bool {
	if f.Amenities.Music && !trip.Amenities.Music {
		return false
	}
	if f.Amenities.Pets && !trip.Amenities.Pets {
		return false
	}
	if f.Amenities.Children && !trip.Amenities.Children {
		return false
	}
	if f.Amenities.Luggage && !trip.Amenities.Luggage {
		return false
	}
	if f.Date != "" && trip.Date != f.Date {
		return false
	}
	if origin != "" && !strings.Contains(foldText(trip.Origin), origin) {
		return false
	}
	if destination != "" && !strings.Contains(foldText(trip.Destination), destination) {
		return false
	}
	return true
}

// foldText lowercases s and strips diacritics, so that "México" and
// "mexico" compare equal. Transformers are not safe for concurrent use,
// so a chain is built per call.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
