package cart

import (
	"sort"
	"strings"
)

// Customization is one selection group on a line item, e.g. the
// "Toppings" group with the options the customer picked.
type Customization struct {
	GroupName string   `json:"group_name" validate:"required"`
	Options   []string `json:"options" validate:"required,min=1,dive,required"`
}

// normalizeCustomizations returns a copy with group names sorted and
// option names sorted within each group. Duplicate options collapse,
// so the result is set-valued regardless of selection order.
func normalizeCustomizations(customizations []Customization) []Customization {
	if len(customizations) == 0 {
		return nil
	}
	out := make([]Customization, 0, len(customizations))
	for _, c := range customizations {
		seen := make(map[string]struct{}, len(c.Options))
		options := make([]string, 0, len(c.Options))
		for _, opt := range c.Options {
			if _, ok := seen[opt]; ok {
				continue
			}
			seen[opt] = struct{}{}
			options = append(options, opt)
		}
		sort.Strings(options)
		out = append(out, Customization{GroupName: c.GroupName, Options: options})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupName < out[j].GroupName })
	return out
}

// IdentityKey derives the stable identity of a line item from its
// catalog item and normalized customization selection. Two adds with
// the same key merge into one line.
func IdentityKey(catalogItemID string, customizations []Customization) string {
	var b strings.Builder
	b.WriteString(catalogItemID)
	for _, c := range normalizeCustomizations(customizations) {
		b.WriteString("|")
		b.WriteString(c.GroupName)
		b.WriteString("=")
		b.WriteString(strings.Join(c.Options, ","))
	}
	return b.String()
}

// SameLine reports whether two inputs identify the same purchasable unit.
func SameLine(a, b LineItemInput) bool {
	return IdentityKey(a.CatalogItemID, a.Customizations) == IdentityKey(b.CatalogItemID, b.Customizations)
}
