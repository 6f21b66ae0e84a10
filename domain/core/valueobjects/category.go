package valueobjects

import (
	"fmt"
	"strings"
)

// Category is the interview stage a session is in. Categories form a
// fixed linear progression from Start through the topic stages to
// Review and finally Complete.
type Category string

const (
	CategoryStart         Category = "START"
	CategoryFunctionality Category = "FUNCTIONALITY"
	CategoryUsers         Category = "USERS"
	CategoryDemographics  Category = "DEMOGRAPHICS"
	CategoryDesign        Category = "DESIGN"
	CategoryMarket        Category = "MARKET"
	CategoryTechnical     Category = "TECHNICAL"
	CategoryReview        Category = "REVIEW"
	CategoryComplete      Category = "COMPLETE"
)

// categoryOrder is the canonical progression. Next walks this slice.
var categoryOrder = []Category{
	CategoryStart,
	CategoryFunctionality,
	CategoryUsers,
	CategoryDemographics,
	CategoryDesign,
	CategoryMarket,
	CategoryTechnical,
	CategoryReview,
	CategoryComplete,
}

// AllCategories returns the progression in order.
func AllCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory converts a string to a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// IsValid checks membership in the closed set
func (c Category) IsValid() bool {
	for _, known := range categoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// Index returns the position of the category in the progression,
// -1 for unknown values.
func (c Category) Index() int {
	for i, known := range categoryOrder {
		if c == known {
			return i
		}
	}
	return -1
}

// Next returns the category that follows this one. Complete is
// terminal and returns itself, so advancing past the end is a no-op.
// Unknown values are returned unchanged.
func (c Category) Next() Category {
	i := c.Index()
	if i < 0 {
		return c
	}
	if i >= len(categoryOrder)-1 {
		return CategoryComplete
	}
	return categoryOrder[i+1]
}

// IsTerminal reports whether the session has finished.
func (c Category) IsTerminal() bool {
	return c == CategoryComplete
}

// IsReview reports whether the session is in the review stage.
func (c Category) IsReview() bool {
	return c == CategoryReview
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}
