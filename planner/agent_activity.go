package planner

import (
	"context"
	"fmt"
	"time"
)

// ActivitySearchAgent generates activity candidates at the destination.
// Enriched searches cluster candidates around the hotel's coordinates.
type ActivitySearchAgent struct {
	delay time.Duration
}

func NewActivitySearchAgent(delay time.Duration) *ActivitySearchAgent {
	return &ActivitySearchAgent{delay: delay}
}

func (a *ActivitySearchAgent) Category() Category { return CategoryActivities }

var activityInventory = []struct {
	name       string
	category   string
	rating     float64
	priceShare float64
	duration   float64
}{
	{"Historic Walking Tour", "cultural", 4.4, 0.10, 3.0},
	{"Museum District Pass", "cultural", 4.2, 0.12, 4.0},
	{"Zipline Adventure Park", "adventure", 4.3, 0.25, 5.0},
	{"Street Food Tasting", "food", 4.4, 0.15, 2.5},
	{"Cooking Class", "food", 4.1, 0.20, 3.5},
	{"Botanical Gardens", "nature", 4.0, 0.06, 2.0},
	{"Coastal Kayak Trip", "nature", 4.3, 0.22, 4.0},
	{"Evening Jazz Club", "entertainment", 4.1, 0.14, 3.0},
	{"Rooftop Theater Show", "entertainment", 4.0, 0.18, 2.5},
	{"Mountain Day Hike", "adventure", 4.2, 0.08, 6.0},
}

func (a *ActivitySearchAgent) SearchIndependent(ctx context.Context, sc AgentContext) (SearchResult, error) {
	baseLat, baseLon := cityCoordinates(sc.Destination)
	return a.search(ctx, sc, baseLat, baseLon)
}

func (a *ActivitySearchAgent) SearchEnriched(ctx context.Context, sc AgentContext, prior PriorContext) (SearchResult, error) {
	if prior.Hotel != nil {
		return a.search(ctx, sc, prior.Hotel.Lat, prior.Hotel.Lon)
	}
	return a.SearchIndependent(ctx, sc)
}

func (a *ActivitySearchAgent) search(ctx context.Context, sc AgentContext, baseLat, baseLon float64) (SearchResult, error) {
	if a.delay > 0 {
		if err := sleepCtx(ctx, a.delay); err != nil {
			return SearchResult{}, err
		}
	}

	activities := make([]Activity, 0, len(activityInventory))
	for i, tmpl := range activityInventory {
		activities = append(activities, Activity{
			ID:              fmt.Sprintf("AC-%d", i+1),
			Name:            tmpl.name,
			Description:     fmt.Sprintf("%s experience in %s", tmpl.category, sc.Destination),
			Lat:             baseLat + float64(i%5)*0.03,
			Lon:             baseLon + float64(i%3)*0.04,
			Price:           sc.Allocation.Activities * tmpl.priceShare,
			Rating:          tmpl.rating,
			DurationHours:   tmpl.duration,
			Categories:      []string{tmpl.category},
			PopularityScore: tmpl.rating * 20,
		})
	}
	return SearchResult{Activities: activities}, nil
}
