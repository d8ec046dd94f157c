package service

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/findmyteacher-api/internal/models"
)

// PriceDefaults is the price window used when a visitor has not moved the
// price slider.
type PriceDefaults struct {
	Min float64
	Max float64
}

// DefaultPriceDefaults matches the marketplace slider range.
var DefaultPriceDefaults = PriceDefaults{Min: 0, Max: 100}

// DefaultCriteria returns criteria that match every teacher priced inside the
// default window.
func DefaultCriteria(defaults PriceDefaults) models.FilterCriteria {
	return models.FilterCriteria{
		Subject:  models.MatchAll,
		City:     models.MatchAll,
		PriceMin: defaults.Min,
		PriceMax: defaults.Max,
	}
}

// ComputeAvailableFacets derives the distinct subjects and cities, each led by
// the MatchAll sentinel and otherwise in first-seen order.
func ComputeAvailableFacets(teachers []models.Teacher) models.Facets {
	facets := models.Facets{
		Subjects: []string{models.MatchAll},
		Cities:   []string{models.MatchAll},
	}
	seenSubjects := map[string]struct{}{models.MatchAll: {}}
	seenCities := map[string]struct{}{models.MatchAll: {}}
	for _, t := range teachers {
		if _, ok := seenSubjects[t.Subject]; !ok {
			seenSubjects[t.Subject] = struct{}{}
			facets.Subjects = append(facets.Subjects, t.Subject)
		}
		if _, ok := seenCities[t.City]; !ok {
			seenCities[t.City] = struct{}{}
			facets.Cities = append(facets.Cities, t.City)
		}
	}
	return facets
}

// NormalizeCriteria turns any criteria value into one FilterTeachers can apply.
// Blank subject/city mean MatchAll, negative bounds clamp to zero, a NaN
// minimum becomes zero and a NaN maximum means no upper bound. Inverted
// bounds are swapped.
func NormalizeCriteria(c models.FilterCriteria) models.FilterCriteria {
	c.Query = strings.TrimSpace(c.Query)
	c.Subject = strings.TrimSpace(c.Subject)
	if c.Subject == "" {
		c.Subject = models.MatchAll
	}
	c.City = strings.TrimSpace(c.City)
	if c.City == "" {
		c.City = models.MatchAll
	}

	if math.IsNaN(c.PriceMin) || c.PriceMin < 0 {
		c.PriceMin = 0
	}
	switch {
	case math.IsNaN(c.PriceMax):
		c.PriceMax = math.Inf(1)
	case c.PriceMax < 0:
		c.PriceMax = 0
	}
	if c.PriceMin > c.PriceMax {
		c.PriceMin, c.PriceMax = c.PriceMax, c.PriceMin
	}
	return c
}

// FilterTeachers returns, in input order, the teachers satisfying every
// active criterion. It never fails; the result is always a fresh slice.
func FilterTeachers(teachers []models.Teacher, criteria models.FilterCriteria) []models.Teacher {
	c := NormalizeCriteria(criteria)
	query := strings.ToLower(c.Query)

	out := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if query != "" && !matchesQuery(t, query) {
			continue
		}
		if c.Subject != models.MatchAll && t.Subject != c.Subject {
			continue
		}
		if c.City != models.MatchAll && t.City != c.City {
			continue
		}
		if t.Price < c.PriceMin || t.Price > c.PriceMax {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesQuery(t models.Teacher, lowered string) bool {
	return strings.Contains(strings.ToLower(t.Name), lowered) ||
		strings.Contains(strings.ToLower(t.Subject), lowered) ||
		strings.Contains(strings.ToLower(t.City), lowered)
}

// SortTeachers returns a stably ordered copy. SortNone keeps the input order.
func SortTeachers(teachers []models.Teacher, option models.SortOption) []models.Teacher {
	out := make([]models.Teacher, len(teachers))
	copy(out, teachers)

	var less func(a, b models.Teacher) bool
	switch option {
	case models.SortPriceLow:
		less = func(a, b models.Teacher) bool { return a.Price < b.Price }
	case models.SortPriceHigh:
		less = func(a, b models.Teacher) bool { return a.Price > b.Price }
	case models.SortRating:
		less = func(a, b models.Teacher) bool { return a.Rating > b.Rating }
	case models.SortReviews:
		less = func(a, b models.Teacher) bool { return a.Reviews > b.Reviews }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
