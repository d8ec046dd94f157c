package models

// Teacher is a marketplace listing. Records are loaded once at startup and
// never mutated afterwards.
type Teacher struct {
	ID            string   `db:"id" json:"id" validate:"required"`
	Name          string   `db:"name" json:"name" validate:"required"`
	Subject       string   `db:"subject" json:"subject" validate:"required"`
	City          string   `db:"city" json:"city" validate:"required"`
	Bio           string   `db:"bio" json:"bio"`
	Education     string   `db:"education" json:"education"`
	Experience    *string  `db:"experience" json:"experience,omitempty"`
	TeachingMode  []string `db:"-" json:"teachingMode"`
	Availability  []string `db:"-" json:"availability"`
	Price         float64  `db:"price" json:"price" validate:"gte=0"`
	PriceUnit     string   `db:"price_unit" json:"priceUnit"`
	Rating        float64  `db:"rating" json:"rating" validate:"gte=0,lte=5"`
	Reviews       int      `db:"reviews" json:"reviews" validate:"gte=0"`
	ProfileImage  string   `db:"profile_image" json:"profileImage"`
	GalleryImages []string `db:"-" json:"galleryImages,omitempty"`
}

// MatchAll is the criteria value meaning "do not filter on this dimension".
const MatchAll = "all"

// FilterCriteria is the transient set of listing filters chosen by a visitor.
type FilterCriteria struct {
	Query    string  `json:"query"`
	Subject  string  `json:"subject"`
	City     string  `json:"city"`
	PriceMin float64 `json:"priceMin"`
	PriceMax float64 `json:"priceMax"`
}

// Facets lists the selectable subject and city values, each led by MatchAll.
type Facets struct {
	Subjects []string `json:"subjects"`
	Cities   []string `json:"cities"`
}

// SortOption selects the secondary ordering applied to a filtered listing.
type SortOption string

const (
	SortNone      SortOption = ""
	SortPriceLow  SortOption = "price_low"
	SortPriceHigh SortOption = "price_high"
	SortRating    SortOption = "rating"
	SortReviews   SortOption = "reviews"
)

// ParseSortOption returns the matching option, or SortNone for unknown input.
func ParseSortOption(raw string) SortOption {
	switch opt := SortOption(raw); opt {
	case SortPriceLow, SortPriceHigh, SortRating, SortReviews:
		return opt
	default:
		return SortNone
	}
}
