package model

// Status is the lifecycle state of an item. All states are mutually
// reachable; there is no terminal state.
type Status string

// Item statuses.
const (
	StatusInUse       Status = "in_use"
	StatusStorage     Status = "storage"
	StatusMaintenance Status = "maintenance"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusInUse, StatusStorage, StatusMaintenance}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInUse, StatusStorage, StatusMaintenance:
		return true
	}
	return false
}

// Category determines the attribute schema of an item. Fixed at creation.
type Category string

// Item categories.
const (
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryKitchen     Category = "kitchen"
	CategoryTools       Category = "tools"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

// Categories lists every category.
var Categories = []Category{
	CategoryClothing,
	CategoryElectronics,
	CategoryFurniture,
	CategoryKitchen,
	CategoryTools,
	CategoryBooks,
	CategoryOther,
}

// requiredAttributes are the attribute keys that must be present (non-null)
// when an item of the category is created.
var requiredAttributes = map[Category][]string{
	CategoryClothing:    {"size"},
	CategoryElectronics: {"brand"},
	CategoryBooks:       {"author"},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RequiredAttributes returns the attribute keys required for c.
func RequiredAttributes(c Category) []string {
	return requiredAttributes[c]
}

// UsageKind describes how an item is being used. Free text is accepted; the
// constants are the values the UI offers.
type UsageKind string

// Usage kinds.
const (
	UsageRegular    UsageKind = "regular"
	UsageOccasional UsageKind = "occasional"
	UsageSeasonal   UsageKind = "seasonal"
	UsageLoan       UsageKind = "loan"
)

// DefaultUsageKind is used when a transition into in_use names no kind.
const DefaultUsageKind = UsageRegular
