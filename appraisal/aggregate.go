/*
aggregate.go - Per-item percent resolution and category roll-up

PURPOSE:
  Converts raw answers into percentages and folds them into one
  weighted-average percent per category.

PER-ITEM RESOLUTION:
  1. Reviewer split + framework configured -> raw = framework aggregate
  2. Otherwise numeric answer -> raw = value; anything else -> raw = 0
  3. Scale configured -> percent = scale.NormalizeToPercent(raw)
  4. Otherwise        -> percent = raw / max_score * 100 (0 when max_score is 0)
  5. percent rounded to 2 places; raw kept unrounded

CATEGORY ROLL-UP:
  percent = round(Σ(item% * weight) / Σ(weight), 2), or 0 with no items

SEE ALSO:
  - scale.go, framework.go: Collaborators used per item
  - engine.go: Runs one aggregation per category
*/
package appraisal

import (
	"github.com/shopspring/decimal"
)

// Aggregator scores items against an optional scale and framework.
// A zero Aggregator falls back to raw/max scoring.
type Aggregator struct {
	Scale     *ScoringScale
	Framework *ReviewerFramework
}

// RawValue resolves an answer to a single raw score.
func (a Aggregator) RawValue(ans Answer) decimal.Decimal {
	switch ans.Kind {
	case AnswerReviewerSplit:
		if a.Framework == nil {
			return decimal.Zero
		}
		return a.Framework.ComputeAggregate(ans.Split)
	case AnswerNumeric:
		return ans.Value
	}
	return decimal.Zero
}

// ItemPercent returns the rounded percent and the unrounded raw value.
func (a Aggregator) ItemPercent(meta CatalogItem, ans Answer) (percent, raw decimal.Decimal) {
	raw = a.RawValue(ans)

	switch {
	case a.Scale != nil:
		percent = a.Scale.NormalizeToPercent(raw)
	case meta.MaxScore.IsPositive():
		percent = raw.Div(meta.MaxScore).Mul(Hundred)
	default:
		percent = decimal.Zero
	}
	return Round2(percent), raw
}

// AggregateCategory scores every catalog item and returns the weighted average.
func (a Aggregator) AggregateCategory(cat Category, catalog *Catalog, answers Answers) CategoryResult {
	res := CategoryResult{
		Category:    cat,
		Percent:     decimal.Zero,
		TotalWeight: decimal.Zero,
		Items:       []ItemDetail{},
	}
	if catalog == nil {
		return res
	}

	weightedSum := decimal.Zero
	for _, meta := range catalog.Items() {
		ans := answers.Get(meta.Code)
		pct, raw := a.ItemPercent(meta, ans)
		w := meta.Weight
		if !w.IsPositive() {
			w = one
		}
		weightedSum = weightedSum.Add(pct.Mul(w))
		res.TotalWeight = res.TotalWeight.Add(w)
		res.Items = append(res.Items, ItemDetail{
			Code:       meta.Code,
			Name:       meta.Name,
			Percent:    pct,
			Raw:        raw,
			Max:        meta.MaxScore,
			Weight:     w,
			TemplateID: meta.TemplateID,
			AnswerKind: ans.Kind.String(),
		})
	}

	if res.TotalWeight.IsPositive() {
		res.Percent = Round2(weightedSum.Div(res.TotalWeight))
	}
	return res
}
