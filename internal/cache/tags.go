package cache

import (
	"slices"

	"github.com/erazemk/inventar/internal/model"
)

// Tag names.
const (
	TagItemList  = "item-list"
	TagUsageList = "usage-list"
)

// ItemTag is bound to every read of a single item.
func ItemTag(id string) string { return "item:" + id }

// StatusListTag is bound to list reads filtered by status.
func StatusListTag(s model.Status) string { return "item-list:status:" + string(s) }

// CategoryListTag is bound to list reads filtered by category.
func CategoryListTag(c model.Category) string { return "item-list:category:" + string(c) }

// UsageTag is bound to usage history reads of one item.
func UsageTag(itemID string) string { return "usage:" + itemID }

// ListTags returns the tags a list read with filter f depends on. A read
// filtered by status or category binds only to those tags: every item write
// bumps the status and category tags of the item before and after the write,
// so any change that can move an item into or out of such a list reaches it.
// Everything else binds to the general item-list tag.
func ListTags(f model.ItemFilter) []string {
	if f.Status == "" && f.Category == "" {
		return []string{TagItemList}
	}
	var tags []string
	if f.Status != "" {
		tags = append(tags, StatusListTag(f.Status))
	}
	if f.Category != "" {
		tags = append(tags, CategoryListTag(f.Category))
	}
	return tags
}

// WriteEffectTags returns the tags a write invalidates. old is nil for a
// create and updated is nil for a delete. touchedUsage reports whether usage
// periods of the item were created, closed, edited or deleted. The result is
// sorted and free of duplicates.
func WriteEffectTags(old, updated *model.Item, touchedUsage bool) []string {
	var tags []string
	for _, item := range []*model.Item{old, updated} {
		if item == nil {
			continue
		}
		tags = append(tags,
			ItemTag(item.ID),
			TagItemList,
			StatusListTag(item.Status),
			CategoryListTag(item.Category),
		)
		if touchedUsage {
			tags = append(tags, UsageTag(item.ID), TagUsageList)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}
