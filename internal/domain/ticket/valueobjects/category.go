package valueobjects

import "fmt"

type Category string

const (
	CategoryGeneral   Category = "general"
	CategoryTechnical Category = "technical"
	CategoryBilling   Category = "billing"
	CategoryAccount   Category = "account"
	CategoryFeature   Category = "feature_request"
	CategoryOther     Category = "other"
)

var validCategories = map[Category]bool{
	CategoryGeneral:   true,
	CategoryTechnical: true,
	CategoryBilling:   true,
	CategoryAccount:   true,
	CategoryFeature:   true,
	CategoryOther:     true,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	return validCategories[c]
}

func NewCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
