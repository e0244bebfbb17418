/*
catalog.go - Flattening template lines into an item catalog

PURPOSE:
  A category (e.g. common) may be fed by several templates. Scoring works
  on a flat catalog: item code -> metadata. GatherLines builds that catalog.

ORDERED MERGE:
  Templates are processed in listed order and items in sequence order.
  When two items resolve to the same code, the LAST one processed wins.
  This is order-dependent by nature, so every overwrite is recorded and
  surfaced to the caller as a configuration warning instead of vanishing.

  Output order is the order in which each code was FIRST seen, which keeps
  results stable across runs.

SEE ALSO:
  - template.go: Item key resolution (code -> name -> synthetic id)
  - aggregate.go: Consumes the catalog
*/
package appraisal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CatalogItem is the flattened metadata of one scored item.
type CatalogItem struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	MaxScore     decimal.Decimal `json:"max_score"`
	Weight       decimal.Decimal `json:"weight"`
	TemplateID   TemplateID      `json:"template_id"`
	TemplateType TemplateType    `json:"template_type"`
}

// Overwrite records an item code that a later template replaced.
type Overwrite struct {
	Code             string     `json:"code"`
	PreviousTemplate TemplateID `json:"previous_template_id"`
	Template         TemplateID `json:"template_id"`
}

func (o Overwrite) String() string {
	return fmt.Sprintf("item %q from template %s overwritten by template %s",
		o.Code, o.PreviousTemplate, o.Template)
}

// Catalog is an ordered code -> item mapping.
type Catalog struct {
	items      map[string]CatalogItem
	order      []string
	overwrites []Overwrite
}

// GatherLines flattens templates into a catalog. Nil templates are skipped.
func GatherLines(templates ...*Template) *Catalog {
	c := &Catalog{items: make(map[string]CatalogItem)}
	for _, tmpl := range templates {
		if tmpl == nil {
			continue
		}
		for _, it := range tmpl.OrderedItems() {
			c.put(CatalogItem{
				Code:         it.Key(),
				Name:         it.Name,
				MaxScore:     it.MaxScore,
				Weight:       it.EffectiveWeight(),
				TemplateID:   tmpl.ID,
				TemplateType: tmpl.Type,
			})
		}
	}
	return c
}

func (c *Catalog) put(item CatalogItem) {
	if prev, ok := c.items[item.Code]; ok {
		c.overwrites = append(c.overwrites, Overwrite{
			Code:             item.Code,
			PreviousTemplate: prev.TemplateID,
			Template:         item.TemplateID,
		})
	} else {
		c.order = append(c.order, item.Code)
	}
	c.items[item.Code] = item
}

// Get returns the item for code.
func (c *Catalog) Get(code string) (CatalogItem, bool) {
	it, ok := c.items[code]
	return it, ok
}

// Codes returns item codes in first-seen order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Items returns the items in first-seen order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.items[code])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }

// Overwrites returns every duplicate-code replacement, in processing order.
func (c *Catalog) Overwrites() []Overwrite {
	out := make([]Overwrite, len(c.overwrites))
	copy(out, c.overwrites)
	return out
}
