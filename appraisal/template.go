package appraisal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TEMPLATE
// =============================================================================

// TemplateItem is one scored line of a template.
type TemplateItem struct {
	ID          string          `json:"id"`
	Sequence    int             `json:"sequence"`
	Code        string          `json:"code,omitempty"`
	Name        string          `json:"name"`
	MaxScore    decimal.Decimal `json:"max_score"`
	Weight      decimal.Decimal `json:"weight"`
	Description string          `json:"description,omitempty"`
}

// Key resolves the catalog key: the declared code, else the name, else a
// synthetic identifier derived from the line ID.
func (it TemplateItem) Key() string {
	if code := strings.TrimSpace(it.Code); code != "" {
		return code
	}
	if name := strings.TrimSpace(it.Name); name != "" {
		return name
	}
	return it.syntheticKey()
}

func (it TemplateItem) syntheticKey() string {
	if it.ID == "" {
		return fmt.Sprintf("line-%d", it.Sequence)
	}
	return "line-" + it.ID
}

// EffectiveWeight returns the item weight, defaulting to 1 when unset or zero.
func (it TemplateItem) EffectiveWeight() decimal.Decimal {
	if it.Weight.IsZero() {
		return one
	}
	return it.Weight
}

// Template is an ordered list of scored items belonging to one scope.
type Template struct {
	ID           TemplateID     `json:"id"`
	Name         string         `json:"name"`
	Code         string         `json:"code,omitempty"`
	Sequence     int            `json:"sequence"`
	Type         TemplateType   `json:"template_type"`
	DepartmentID DepartmentID   `json:"department_id,omitempty"`
	JobID        JobID          `json:"job_id,omitempty"`
	Description  string         `json:"description,omitempty"`
	Items        []TemplateItem `json:"lines"`
}

// NormalizeScope clears scope fields that don't apply to the template type:
// department templates carry no job, role templates no department, and
// common/master templates neither.
func (t *Template) NormalizeScope() {
	switch t.Type {
	case TemplateDepartment:
		t.JobID = ""
	case TemplateRole:
		t.DepartmentID = ""
	case TemplateCommon, TemplateMaster:
		t.DepartmentID = ""
		t.JobID = ""
	}
}

// OrderedItems returns items by ascending Sequence, ties in declaration order.
func (t *Template) OrderedItems() []TemplateItem {
	items := make([]TemplateItem, len(t.Items))
	copy(items, t.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sequence < items[j].Sequence
	})
	return items
}

// Validate checks the template type and item values.
func (t *Template) Validate() error {
	if t.ID == "" {
		return NewConfigurationError("template", "id is required")
	}
	if !t.Type.Valid() {
		return NewConfigurationError("template_type", "template %s: unknown type %q", t.ID, t.Type)
	}
	for _, it := range t.Items {
		if strings.TrimSpace(it.Name) == "" {
			return NewConfigurationError("lines", "template %s: line name is required", t.ID)
		}
		if it.MaxScore.IsNegative() {
			return NewConfigurationError("lines", "template %s: line %q max score cannot be negative", t.ID, it.Name)
		}
		if it.Weight.IsNegative() {
			return NewConfigurationError("lines", "template %s: line %q weight cannot be negative", t.ID, it.Name)
		}
	}
	return nil
}

// =============================================================================
// TEMPLATE SOURCE - lookup by identifier
// =============================================================================

// TemplateSource resolves templates by identifier.
type TemplateSource interface {
	Template(id TemplateID) (*Template, bool)
}

// TemplateIndex is a slice-backed TemplateSource.
type TemplateIndex struct {
	byID  map[TemplateID]*Template
	order []TemplateID
}

// NewTemplateIndex indexes templates; a later template with the same ID
// replaces an earlier one.
func NewTemplateIndex(templates ...*Template) *TemplateIndex {
	idx := &TemplateIndex{byID: make(map[TemplateID]*Template, len(templates))}
	for _, t := range templates {
		idx.Add(t)
	}
	return idx
}

// Add indexes one template.
func (idx *TemplateIndex) Add(t *Template) {
	if t == nil {
		return
	}
	if _, ok := idx.byID[t.ID]; !ok {
		idx.order = append(idx.order, t.ID)
	}
	idx.byID[t.ID] = t
}

func (idx *TemplateIndex) Template(id TemplateID) (*Template, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// All returns templates in first-indexed order.
func (idx *TemplateIndex) All() []*Template {
	out := make([]*Template, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}

// ByType returns the indexed templates of one type, in order.
func (idx *TemplateIndex) ByType(tt TemplateType) []*Template {
	var out []*Template
	for _, t := range idx.All() {
		if t.Type == tt {
			out = append(out, t)
		}
	}
	return out
}
