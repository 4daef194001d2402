// Package navigation describes the back office menu and filters it by the permissions of a user.
package navigation

import (
	"slices"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
)

// Item is a single menu link guarded by a permission.
type Item struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Permission string `json:"-"`
}

// Section groups menu links under a heading.
type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Menu returns the complete menu.
func Menu() []Section {
	return []Section{
		{
			Title: "Equipment",
			Items: []Item{
				{Title: "Category Types", URL: "/equipment/category-types", Permission: auth.PermCategoryTypeRead},
				{Title: "Categories", URL: "/equipment/categories", Permission: auth.PermCategoryRead},
				{Title: "Items", URL: "/equipment/items", Permission: auth.PermEquipmentRead},
			},
		},
		{
			Title: "Refractory",
			Items: []Item{
				{Title: "Specifications", URL: "/refractory/specifications", Permission: auth.PermRefractoryRead},
				{Title: "Quality Control", URL: "/refractory/quality-control", Permission: auth.PermRefractoryRead},
				{Title: "Certifications", URL: "/refractory/certifications", Permission: auth.PermRefractoryRead},
				{Title: "Documents", URL: "/refractory/documents", Permission: auth.PermRefractoryRead},
				{Title: "Batches", URL: "/refractory/batches", Permission: auth.PermRefractoryRead},
				{Title: "Performance", URL: "/refractory/performance", Permission: auth.PermRefractoryRead},
			},
		},
		{
			Title: "Configuration",
			Items: []Item{
				{Title: "Users", URL: "/data/config/users", Permission: auth.PermUserRead},
				{Title: "Roles", URL: "/data/config/roles", Permission: auth.PermRoleRead},
				{Title: "Permissions", URL: "/data/config/permissions", Permission: auth.PermPermissionRead},
			},
		},
	}
}

// Visible returns the menu reduced to the items the permissions allow.
// Sections without a visible item are dropped.
func Visible(permissions []string) []Section {
	var out []Section

	for _, section := range Menu() {
		var items []Item

		for _, item := range section.Items {
			if slices.Contains(permissions, item.Permission) {
				items = append(items, item)
			}
		}

		if len(items) > 0 {
			out = append(out, Section{Title: section.Title, Items: items})
		}
	}

	return out
}
