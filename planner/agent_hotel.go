package planner

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HotelSearchAgent generates lodging candidates around the destination.
// Enriched searches place candidates relative to the flight's arrival
// airport and stamp check-in dates from the arrival date.
type HotelSearchAgent struct {
	delay time.Duration
}

func NewHotelSearchAgent(delay time.Duration) *HotelSearchAgent {
	return &HotelSearchAgent{delay: delay}
}

func (a *HotelSearchAgent) Category() Category { return CategoryHotels }

var hotelInventory = []struct {
	styleName  string
	rating     float64
	priceShare float64
	airportKM  float64
	amenities  []string
}{
	{"Grand Hotel", 4.5, 1.10, 12.0, []string{"wifi", "pool", "spa", "restaurant"}},
	{"Comfort Inn", 4.2, 0.70, 8.0, []string{"wifi", "breakfast", "parking"}},
	{"Boutique", 4.3, 0.95, 5.0, []string{"wifi", "restaurant", "bar"}},
	{"Express", 3.8, 0.55, 3.0, []string{"wifi", "parking"}},
	{"Resort", 4.7, 1.30, 25.0, []string{"wifi", "pool", "spa", "beach", "restaurant"}},
}

func (a *HotelSearchAgent) SearchIndependent(ctx context.Context, sc AgentContext) (SearchResult, error) {
	return a.search(ctx, sc, nil)
}

func (a *HotelSearchAgent) SearchEnriched(ctx context.Context, sc AgentContext, prior PriorContext) (SearchResult, error) {
	return a.search(ctx, sc, prior.Flight)
}

func (a *HotelSearchAgent) search(ctx context.Context, sc AgentContext, fc *FlightContext) (SearchResult, error) {
	if a.delay > 0 {
		if err := sleepCtx(ctx, a.delay); err != nil {
			return SearchResult{}, err
		}
	}

	nights := tripNights(sc.StartDate, sc.EndDate)
	perNightBudget := sc.Allocation.Hotels
	if nights > 0 {
		perNightBudget /= float64(nights)
	}
	checkIn := sc.StartDate
	if fc != nil && fc.ArrivalDate != "" {
		checkIn = fc.ArrivalDate
	}
	baseLat, baseLon := cityCoordinates(sc.Destination)

	hotels := make([]Hotel, 0, len(hotelInventory))
	for i, tmpl := range hotelInventory {
		perNight := perNightBudget * tmpl.priceShare
		hotels = append(hotels, Hotel{
			ID:                fmt.Sprintf("HT-%d", i+1),
			Name:              fmt.Sprintf("%s %s", sc.Destination, tmpl.styleName),
			Location:          fmt.Sprintf("%s city center", sc.Destination),
			Lat:               baseLat + float64(i)*0.02,
			Lon:               baseLon - float64(i)*0.015,
			CheckInDate:       checkIn,
			CheckOutDate:      sc.EndDate,
			CheckInTime:       "15:00",
			PricePerNight:     perNight,
			Nights:            nights,
			TotalCost:         perNight * float64(nights),
			Rating:            tmpl.rating,
			AirportDistanceKM: tmpl.airportKM,
			Amenities:         tmpl.amenities,
		})
	}
	return SearchResult{Hotels: hotels}, nil
}

// tripNights counts nights between two ISO dates, defaulting to 1 when
// the dates don't parse.
func tripNights(startDate, endDate string) int {
	start, err1 := time.Parse("2006-01-02", startDate)
	end, err2 := time.Parse("2006-01-02", endDate)
	if err1 != nil || err2 != nil {
		return 1
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// cityCoordinates derives stable synthetic coordinates from a city name so
// distance math behaves consistently within a session.
func cityCoordinates(city string) (float64, float64) {
	var h uint32
	for _, r := range strings.ToLower(city) {
		h = h*31 + uint32(r)
	}
	lat := float64(h%120) - 60.0
	lon := float64((h/120)%360) - 180.0
	return lat, lon
}
