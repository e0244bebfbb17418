package appraisal

import (
	"github.com/shopspring/decimal"
)

// weightTolerance is how far category weights may drift from 100.
var weightTolerance = decimal.RequireFromString("0.001")

// CategoryWeights are the percentage weights of the three categories.
type CategoryWeights struct {
	Functional decimal.Decimal `json:"functional"`
	Role       decimal.Decimal `json:"role"`
	Common     decimal.Decimal `json:"common"`
}

// NewCategoryWeights builds weights from plain percentages.
func NewCategoryWeights(functional, role, common float64) CategoryWeights {
	return CategoryWeights{
		Functional: Dec(functional),
		Role:       Dec(role),
		Common:     Dec(common),
	}
}

func (w CategoryWeights) Total() decimal.Decimal {
	return Sum(w.Functional, w.Role, w.Common)
}

// Of returns the weight of one category.
func (w CategoryWeights) Of(c Category) decimal.Decimal {
	switch c {
	case CategoryFunctional:
		return w.Functional
	case CategoryRole:
		return w.Role
	}
	return w.Common
}

// Validate requires the weights to sum to 100 (±0.001).
func (w CategoryWeights) Validate() error {
	total := w.Total()
	if !Within(total, Hundred, weightTolerance) {
		return NewTotalError("weights", "functional + role + common weightages must sum to 100%", total)
	}
	for _, c := range Categories {
		if w.Of(c).IsNegative() {
			return NewConfigurationError("weights", "%s weightage cannot be negative", c)
		}
	}
	return nil
}

// MasterConfiguration ties templates, weights, scale and framework together.
type MasterConfiguration struct {
	ID                  MasterID           `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	AssessmentPeriod    AssessmentPeriod   `json:"assessment_period,omitempty"`
	Weights             CategoryWeights    `json:"weights"`
	Scale               *ScoringScale      `json:"scoring_scale,omitempty"`
	Framework           *ReviewerFramework `json:"assessment_framework,omitempty"`
	MasterTemplate      *Template          `json:"master_template,omitempty"`
	DepartmentTemplates []*Template        `json:"department_templates,omitempty"`
	RoleTemplates       []*Template        `json:"role_templates,omitempty"`
	CommonTemplates     []*Template        `json:"common_templates,omitempty"`
}

// Validate enforces every save-time invariant of the configuration.
func (m *MasterConfiguration) Validate() error {
	if m.Name == "" {
		return NewConfigurationError("name", "master name is required")
	}
	if err := m.Weights.Validate(); err != nil {
		return err
	}
	if !m.AssessmentPeriod.Valid() {
		return NewConfigurationError("assessment_period", "unknown period %q", m.AssessmentPeriod)
	}
	if m.Scale != nil {
		if err := m.Scale.Validate(); err != nil {
			return err
		}
	}
	if m.Framework != nil {
		if err := m.Framework.Validate(); err != nil {
			return err
		}
	}
	if m.MasterTemplate != nil {
		if err := checkTemplates("master_template", TemplateMaster, m.MasterTemplate); err != nil {
			return err
		}
	}
	if err := checkTemplates("department_templates", TemplateDepartment, m.DepartmentTemplates...); err != nil {
		return err
	}
	if err := checkTemplates("role_templates", TemplateRole, m.RoleTemplates...); err != nil {
		return err
	}
	return checkTemplates("common_templates", TemplateCommon, m.CommonTemplates...)
}

func checkTemplates(field string, want TemplateType, templates ...*Template) error {
	for _, t := range templates {
		if t == nil {
			return NewConfigurationError(field, "nil template reference")
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if t.Type != want {
			return NewConfigurationError(field, "template %s has type %q, expected %q", t.ID, t.Type, want)
		}
	}
	return nil
}

// Index returns a TemplateSource over every template the master references.
func (m *MasterConfiguration) Index() *TemplateIndex {
	idx := NewTemplateIndex()
	idx.Add(m.MasterTemplate)
	for _, group := range [][]*Template{m.DepartmentTemplates, m.RoleTemplates, m.CommonTemplates} {
		for _, t := range group {
			idx.Add(t)
		}
	}
	return idx
}
