package factory

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/warp/appraisal-engine/allocation"
	"github.com/warp/appraisal-engine/appraisal"
	"github.com/warp/appraisal-engine/okr"
)

// =============================================================================
// BUNDLE - the converted, validated result of one or more documents
// =============================================================================

// Bundle holds every object defined by a set of documents.
type Bundle struct {
	Scales      map[appraisal.ScaleID]*appraisal.ScoringScale
	Frameworks  map[appraisal.FrameworkID]*appraisal.ReviewerFramework
	Templates   *appraisal.TemplateIndex
	Masters     []*appraisal.MasterConfiguration
	Employees   []appraisal.Employee
	Allocations []*allocation.Set

	ObjectiveTemplates []*okr.ObjectiveTemplate
}

// ObjectiveTemplate returns an objective template by id.
func (b *Bundle) ObjectiveTemplate(id string) (*okr.ObjectiveTemplate, error) {
	for _, t := range b.ObjectiveTemplates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.Wrapf(okr.ErrTemplateNotFound, "objective template %q", id)
}

// Master returns a master configuration by id.
func (b *Bundle) Master(id appraisal.MasterID) (*appraisal.MasterConfiguration, error) {
	for _, m := range b.Masters {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, errors.Wrapf(appraisal.ErrMasterNotFound, "master %q", id)
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// Format selects the document decoder.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ConfigFactory converts documents to validated domain objects.
type ConfigFactory struct {
	logger *zap.Logger
}

// NewConfigFactory creates a new factory. A nil logger discards warnings.
func NewConfigFactory(logger *zap.Logger) *ConfigFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigFactory{logger: logger}
}

// Decode parses raw bytes into a Document. Syntax errors and unknown
// fields are input errors.
func (f *ConfigFactory) Decode(data []byte, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return Document{}, &appraisal.InputValidationError{Message: "failed to parse YAML document", Err: err}
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, &appraisal.InputValidationError{Message: "failed to parse JSON document", Err: err}
		}
	default:
		return Document{}, errors.Errorf("unsupported document format %q", format)
	}
	return doc, nil
}

// Parse decodes and converts a single document.
func (f *ConfigFactory) Parse(data []byte, format Format) (*Bundle, error) {
	doc, err := f.Decode(data, format)
	if err != nil {
		return nil, err
	}
	return f.FromDocument(doc)
}

// ParseMaster parses a single self-contained master JSON document, as
// submitted by the admin API. The document must define exactly one master.
func (f *ConfigFactory) ParseMaster(data []byte) (*appraisal.MasterConfiguration, error) {
	bundle, err := f.Parse(data, FormatJSON)
	if err != nil {
		return nil, err
	}
	if len(bundle.Masters) != 1 {
		return nil, appraisal.NewConfigurationError("masters", "expected exactly one master, got %d", len(bundle.Masters))
	}
	return bundle.Masters[0], nil
}

// FromDocument converts a document, resolving references by id and
// validating every object.
func (f *ConfigFactory) FromDocument(doc Document) (*Bundle, error) {
	b := &Bundle{
		Scales:     make(map[appraisal.ScaleID]*appraisal.ScoringScale),
		Frameworks: make(map[appraisal.FrameworkID]*appraisal.ReviewerFramework),
		Templates:  appraisal.NewTemplateIndex(),
	}

	for _, sj := range doc.Scales {
		scale := parseScale(sj)
		if err := scale.Validate(); err != nil {
			return nil, errors.Wrapf(err, "scale %q", sj.ID)
		}
		b.Scales[scale.ID] = scale
	}

	for _, fj := range doc.Frameworks {
		fw := parseFramework(fj)
		if err := fw.Validate(); err != nil {
			return nil, errors.Wrapf(err, "framework %q", fj.ID)
		}
		if !fw.Balanced() {
			f.logger.Warn("reviewer framework weights do not sum to 100",
				zap.String("framework_id", string(fw.ID)),
				zap.String("total", fw.Total().String()),
			)
		}
		b.Frameworks[fw.ID] = fw
	}

	for _, tj := range doc.Templates {
		t := parseTemplate(tj)
		if err := t.Validate(); err != nil {
			return nil, errors.Wrapf(err, "template %q", tj.ID)
		}
		b.Templates.Add(t)
	}

	for _, mj := range doc.Masters {
		m, err := f.parseMaster(mj, b)
		if err != nil {
			return nil, errors.Wrapf(err, "master %q", mj.ID)
		}
		b.Masters = append(b.Masters, m)
	}

	for _, ej := range doc.Employees {
		b.Employees = append(b.Employees, appraisal.Employee{
			ID:           appraisal.EmployeeID(ej.ID),
			Name:         ej.Name,
			DepartmentID: appraisal.DepartmentID(ej.DepartmentID),
			JobID:        appraisal.JobID(ej.JobID),
		})
	}

	for _, oj := range doc.ObjectiveTemplates {
		t, err := ParseObjectiveTemplate(oj)
		if err != nil {
			return nil, errors.Wrapf(err, "objective template %q", oj.ID)
		}
		b.ObjectiveTemplates = append(b.ObjectiveTemplates, t)
	}

	for _, aj := range doc.Allocations {
		set, err := ParseAllocation(aj)
		if err != nil {
			return nil, errors.Wrapf(err, "allocation %q", aj.TemplateID)
		}
		if tpl, err := b.ObjectiveTemplate(aj.TemplateID); err == nil {
			for _, kr := range set.KeyResults {
				if err := allocation.CheckDeclared(tpl, kr); err != nil {
					return nil, errors.Wrapf(err, "allocation %q", aj.TemplateID)
				}
			}
		}
		b.Allocations = append(b.Allocations, set)
	}
	return b, nil
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func parseScale(sj ScaleJSON) *appraisal.ScoringScale {
	s := &appraisal.ScoringScale{
		ID:          appraisal.ScaleID(sj.ID),
		Name:        sj.Name,
		Description: sj.Description,
		Min:         appraisal.Dec(sj.Min),
		Max:         appraisal.Dec(sj.Max),
	}
	for _, lj := range sj.Lines {
		s.Lines = append(s.Lines, appraisal.RangeLine{
			Min:   appraisal.Dec(lj.Min),
			Max:   appraisal.Dec(lj.Max),
			Label: lj.Label,
		})
	}
	return s
}

func parseFramework(fj FrameworkJSON) *appraisal.ReviewerFramework {
	fw := &appraisal.ReviewerFramework{
		ID:          appraisal.FrameworkID(fj.ID),
		Name:        fj.Name,
		Description: fj.Description,
	}
	for _, lj := range fj.Lines {
		fw.Lines = append(fw.Lines, appraisal.ReviewerWeight{
			Type:   appraisal.ReviewerType(lj.Type),
			Weight: appraisal.Dec(lj.Weight),
		})
	}
	return fw
}

func parseTemplate(tj TemplateJSON) *appraisal.Template {
	t := &appraisal.Template{
		ID:           appraisal.TemplateID(tj.ID),
		Name:         tj.Name,
		Code:         tj.Code,
		Sequence:     tj.Sequence,
		Type:         appraisal.TemplateType(tj.Type),
		DepartmentID: appraisal.DepartmentID(tj.DepartmentID),
		JobID:        appraisal.JobID(tj.JobID),
		Description:  tj.Description,
	}
	for i, lj := range tj.Lines {
		weight := 1.0
		if lj.Weight != nil {
			weight = *lj.Weight
		}
		seq := lj.Sequence
		if seq == 0 {
			seq = i + 1
		}
		t.Items = append(t.Items, appraisal.TemplateItem{
			ID:          lj.ID,
			Sequence:    seq,
			Code:        lj.Code,
			Name:        lj.Name,
			MaxScore:    appraisal.Dec(lj.MaxScore),
			Weight:      appraisal.Dec(weight),
			Description: lj.Description,
		})
	}
	t.NormalizeScope()
	return t
}

func (f *ConfigFactory) parseMaster(mj MasterJSON, b *Bundle) (*appraisal.MasterConfiguration, error) {
	m := &appraisal.MasterConfiguration{
		ID:               appraisal.MasterID(mj.ID),
		Name:             mj.Name,
		Description:      mj.Description,
		AssessmentPeriod: appraisal.AssessmentPeriod(mj.AssessmentPeriod),
		Weights:          appraisal.NewCategoryWeights(mj.Weights.Functional, mj.Weights.Role, mj.Weights.Common),
	}

	if mj.ScaleID != "" {
		s, ok := b.Scales[appraisal.ScaleID(mj.ScaleID)]
		if !ok {
			return nil, appraisal.NewConfigurationError("scoring_scale_id", "unknown scale %q", mj.ScaleID)
		}
		m.Scale = s
	}
	if mj.FrameworkID != "" {
		fw, ok := b.Frameworks[appraisal.FrameworkID(mj.FrameworkID)]
		if !ok {
			return nil, appraisal.NewConfigurationError("assessment_framework_id", "unknown framework %q", mj.FrameworkID)
		}
		m.Framework = fw
	}

	lookup := func(ids []string) ([]*appraisal.Template, error) {
		var out []*appraisal.Template
		for _, id := range ids {
			t, ok := b.Templates.Template(appraisal.TemplateID(id))
			if !ok {
				return nil, errors.Wrapf(appraisal.ErrTemplateNotFound, "template %q", id)
			}
			out = append(out, t)
		}
		return out, nil
	}

	var err error
	if mj.MasterTemplateID != "" {
		var ts []*appraisal.Template
		if ts, err = lookup([]string{mj.MasterTemplateID}); err != nil {
			return nil, err
		}
		m.MasterTemplate = ts[0]
	}
	if m.DepartmentTemplates, err = lookup(mj.DepartmentTemplateIDs); err != nil {
		return nil, err
	}
	if m.RoleTemplates, err = lookup(mj.RoleTemplateIDs); err != nil {
		return nil, err
	}
	if m.CommonTemplates, err = lookup(mj.CommonTemplateIDs); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseAllocation converts an allocation document into a validated,
// redistributed allocation set.
func ParseAllocation(aj AllocationJSON) (*allocation.Set, error) {
	set := allocation.NewSet(allocation.TemplateID(aj.TemplateID))
	set.Budget = ParseBudget(aj.Budget)
	set.DepartmentID = set.Budget.DepartmentID
	set.Teams = ParseTeams(aj.Teams)
	for _, kj := range aj.KeyResults {
		set.KeyResults = append(set.KeyResults, allocation.KeyResultAllocation{
			ID:          allocation.KeyResultID(kj.ID),
			TeamID:      allocation.TeamID(kj.TeamID),
			ResultType:  allocation.ResultType(kj.ResultType),
			Title:       kj.Title,
			Distributed: appraisal.Dec(kj.Distributed),
		})
	}
	allocation.Redistribute(set)
	if err := allocation.Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

func ParseBudget(bj BudgetJSON) allocation.DepartmentBudget {
	return allocation.NewDepartmentBudget(appraisal.DepartmentID(bj.DepartmentID), bj.Functional, bj.Role, bj.Common)
}

func ParseTeams(tjs []TeamJSON) []allocation.TeamAllocation {
	teams := make([]allocation.TeamAllocation, 0, len(tjs))
	for i, tj := range tjs {
		seq := tj.Sequence
		if seq == 0 {
			seq = i + 1
		}
		teams = append(teams, allocation.TeamAllocation{
			TeamID:     allocation.TeamID(tj.TeamID),
			Name:       tj.Name,
			Sequence:   seq,
			Department: appraisal.Dec(tj.Department),
			Role:       appraisal.Dec(tj.Role),
		})
	}
	return teams
}

const dateLayout = "2006-01-02"

func parseDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, appraisal.NewConfigurationError(field, "invalid date %q, want YYYY-MM-DD", v)
	}
	return &t, nil
}

func parseMeasure(mj MeasureJSON) okr.Measure {
	return okr.Measure{
		Operator: okr.Operator(mj.Operator),
		Value:    appraisal.Dec(mj.Value),
		Unit:     mj.Unit,
		Period:   mj.Period,
	}
}

// ParseObjectiveTemplate converts and validates an objective template.
func ParseObjectiveTemplate(oj ObjectiveTemplateJSON) (*okr.ObjectiveTemplate, error) {
	if oj.ID == "" {
		return nil, appraisal.NewConfigurationError("id", "objective template id is required")
	}
	t := &okr.ObjectiveTemplate{
		ID:                 oj.ID,
		Name:               oj.Name,
		Code:               oj.Code,
		ObjectiveTitle:     oj.ObjectiveTitle,
		Priority:           okr.Priority(oj.Priority),
		ObjectiveWeightage: appraisal.Dec(oj.ObjectiveWeightage),
		DepartmentID:       appraisal.DepartmentID(oj.DepartmentID),
	}
	if t.Priority == "" {
		t.Priority = okr.PriorityMedium
	}

	var err error
	if t.Start, err = parseDate("start_date", oj.StartDate); err != nil {
		return nil, err
	}
	if t.End, err = parseDate("end_date", oj.EndDate); err != nil {
		return nil, err
	}

	for i, kj := range oj.KeyResults {
		seq := kj.Sequence
		if seq == 0 {
			seq = i + 1
		}
		kr := okr.TemplateKeyResult{
			Code:       kj.Code,
			Sequence:   seq,
			Title:      kj.Title,
			Metric:     okr.Metric(kj.Metric),
			Target:     parseMeasure(kj.Target),
			Actual:     parseMeasure(kj.Actual),
			Weightage:  appraisal.Dec(kj.Weightage),
			DataSource: okr.DataSource(kj.DataSource),
		}
		if kr.Metric == "" {
			kr.Metric = okr.MetricPercentage
		}
		if kr.DataSource == "" {
			kr.DataSource = okr.SourceManual
		}
		t.KeyResults = append(t.KeyResults, kr)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
