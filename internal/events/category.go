package events

import (
	"errors"
	"fmt"
)

// Category is the closed set of event kinds a post can be tagged with.
type Category string

const (
	CategoryCrime      Category = "crime"
	CategoryShopping   Category = "shopping"
	CategoryRestaurant Category = "restaurant"
	CategoryLocalEvent Category = "local_event"
	CategoryOther      Category = "other"
)

var ErrInvalidCategory = errors.New("invalid category")

// Presentation is what clients need to render a category marker.
type Presentation struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Icon     string   `json:"icon"`
}

// categoryOrder fixes listing order; presentations must hold an entry for each.
var categoryOrder = []Category{
	CategoryCrime,
	CategoryShopping,
	CategoryRestaurant,
	CategoryLocalEvent,
	CategoryOther,
}

var presentations = map[Category]Presentation{
	CategoryCrime:      {Category: CategoryCrime, Label: "Crime", Icon: "crime.png"},
	CategoryShopping:   {Category: CategoryShopping, Label: "Shopping", Icon: "shopping.png"},
	CategoryRestaurant: {Category: CategoryRestaurant, Label: "Restaurant", Icon: "restaurant.png"},
	CategoryLocalEvent: {Category: CategoryLocalEvent, Label: "Local event", Icon: "local_event.png"},
	CategoryOther:      {Category: CategoryOther, Label: "Other", Icon: "star.png"},
}

// ParseCategory accepts the wire tag of a category. The empty string means
// "no category" and is returned as-is.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", nil
	}
	c := Category(s)
	if _, ok := presentations[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Effective maps an unset category to CategoryOther.
func (c Category) Effective() Category {
	if c == "" {
		return CategoryOther
	}
	return c
}

// Presentation returns the display metadata for c; unset presents as other.
func (c Category) Presentation() Presentation {
	return presentations[c.Effective()]
}

// Categories lists every category with its presentation, in display order.
func Categories() []Presentation {
	out := make([]Presentation, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		out = append(out, presentations[c])
	}
	return out
}
