package appraisal_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/appraisal-engine/appraisal"
)

func TestParseAnswers_Kinds(t *testing.T) {
	answers, err := appraisal.ParseAnswers([]byte(`{
		"teamwork": 4,
		"delivery": "3.5",
		"values": {"self": 4, "peer": "x"},
		"blank": "",
		"missing": null,
		"flag": true,
		"list": [1, 2],
		"words": "excellent"
	}`))
	require.NoError(t, err)

	assert.Equal(t, appraisal.AnswerNumeric, answers.Get("teamwork").Kind)
	assertDec(t, 4, answers.Get("teamwork").Value)

	assert.Equal(t, appraisal.AnswerNumeric, answers.Get("delivery").Kind)
	assertDec(t, 3.5, answers.Get("delivery").Value)

	split := answers.Get("values")
	require.Equal(t, appraisal.AnswerReviewerSplit, split.Kind)
	assertDec(t, 4, split.Split[appraisal.ReviewerSelf])
	assertDec(t, 0, split.Split[appraisal.ReviewerPeer])

	assert.Equal(t, appraisal.AnswerNone, answers.Get("blank").Kind)
	assert.Equal(t, appraisal.AnswerNone, answers.Get("missing").Kind)
	assert.Equal(t, appraisal.AnswerNone, answers.Get("not-there").Kind)
	assert.Equal(t, appraisal.AnswerInvalid, answers.Get("flag").Kind)
	assert.Equal(t, appraisal.AnswerInvalid, answers.Get("list").Kind)
	assert.Equal(t, appraisal.AnswerInvalid, answers.Get("words").Kind)
}

func TestParseAnswers_RejectsNonObject(t *testing.T) {
	for _, payload := range []string{`[1,2]`, `42`, `"teamwork"`} {
		_, err := appraisal.ParseAnswers([]byte(payload))
		require.Error(t, err, payload)
		assert.True(t, appraisal.IsInputError(err), payload)
	}

	_, err := appraisal.ParseAnswers([]byte(`{"teamwork": `))
	require.Error(t, err)
	assert.True(t, appraisal.IsInputError(err))
}

func TestParseAnswers_Empty(t *testing.T) {
	answers, err := appraisal.ParseAnswers(nil)
	require.NoError(t, err)
	assert.Empty(t, answers)

	answers, err = appraisal.ParseAnswers([]byte("  "))
	require.NoError(t, err)
	assert.NotNil(t, answers)
}

func TestAnswer_MarshalRoundTrip(t *testing.T) {
	in := appraisal.Answers{
		"teamwork": appraisal.Numeric(4.25),
		"values":   appraisal.ReviewerSplit(map[appraisal.ReviewerType]float64{"self": 4, "peer": 2}),
		"blank":    appraisal.NoAnswer(),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := appraisal.ParseAnswers(data)
	require.NoError(t, err)
	assertDec(t, 4.25, out.Get("teamwork").Value)
	assertDec(t, 2, out.Get("values").Split[appraisal.ReviewerPeer])
	assert.Equal(t, appraisal.AnswerNone, out.Get("blank").Kind)
}

func TestAnswerKey(t *testing.T) {
	assert.Equal(t, "teamwork", appraisal.AnswerKey("  teamwork ", 12))
	assert.Equal(t, "12", appraisal.AnswerKey("", 12))
	assert.Equal(t, "7", appraisal.AnswerKey("   ", 7))
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestGatherLines_KeyResolution(t *testing.T) {
	tp := tmpl("t1", appraisal.TemplateCommon,
		appraisal.TemplateItem{ID: "a", Sequence: 1, Code: " values ", Name: "Values", MaxScore: d(5)},
		appraisal.TemplateItem{ID: "b", Sequence: 2, Name: "Ownership", MaxScore: d(5)},
		appraisal.TemplateItem{ID: "c", Sequence: 3, Name: "  ", MaxScore: d(5)},
	)

	cat := appraisal.GatherLines(tp)
	assert.Equal(t, []string{"values", "Ownership", "line-c"}, cat.Codes())

	it, ok := cat.Get("values")
	require.True(t, ok)
	assertDec(t, 1, it.Weight, "zero weight defaults to 1")
	assert.Equal(t, appraisal.TemplateID("t1"), it.TemplateID)
}

func TestGatherLines_LastWinsAndRecordsOverwrite(t *testing.T) {
	// GIVEN: Two common templates declaring the same code
	first := tmpl("t-first", appraisal.TemplateCommon, item("values", 1, 5, 1), item("ethics", 2, 5, 1))
	second := tmpl("t-second", appraisal.TemplateCommon, item("values", 1, 10, 3))

	// WHEN: Gathering in order
	cat := appraisal.GatherLines(first, nil, second)

	// THEN: The later template's metadata wins, first-seen order is kept
	assert.Equal(t, []string{"values", "ethics"}, cat.Codes())
	it, _ := cat.Get("values")
	assertDec(t, 10, it.MaxScore)
	assertDec(t, 3, it.Weight)
	assert.Equal(t, appraisal.TemplateID("t-second"), it.TemplateID)

	// AND: The overwrite is reported
	require.Len(t, cat.Overwrites(), 1)
	ow := cat.Overwrites()[0]
	assert.Equal(t, "values", ow.Code)
	assert.Equal(t, appraisal.TemplateID("t-first"), ow.PreviousTemplate)
	assert.Contains(t, ow.String(), "t-second")
}

func TestGatherLines_SequenceOrder(t *testing.T) {
	tp := tmpl("t1", appraisal.TemplateRole, item("c", 3, 5, 1), item("a", 1, 5, 1), item("b", 2, 5, 1))
	assert.Equal(t, []string{"a", "b", "c"}, appraisal.GatherLines(tp).Codes())
	assert.Equal(t, 0, appraisal.GatherLines().Len())
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestAggregateCategory_WeightedAverage_NoScale(t *testing.T) {
	// GIVEN: Two items, weights 1 and 3, no scale
	cat := appraisal.GatherLines(tmpl("t", appraisal.TemplateCommon,
		item("a", 1, 5, 1),
		item("b", 2, 10, 3),
	))
	answers := appraisal.Answers{"a": appraisal.Numeric(5), "b": appraisal.Numeric(5)}

	// WHEN: Aggregating
	res := appraisal.Aggregator{}.AggregateCategory(appraisal.CategoryCommon, cat, answers)

	// THEN: (100*1 + 50*3) / 4 = 62.5
	assertDec(t, 62.5, res.Percent)
	assertDec(t, 4, res.TotalWeight)
	require.Len(t, res.Items, 2)
	assertDec(t, 50, res.Items[1].Percent)
	assert.Equal(t, "numeric", res.Items[1].AnswerKind)
}

func TestAggregateCategory_DegradesBadInput(t *testing.T) {
	cat := appraisal.GatherLines(tmpl("t", appraisal.TemplateCommon,
		item("zero-max", 1, 0, 1),
		item("text", 2, 5, 1),
		item("missing", 3, 5, 1),
		item("ok", 4, 5, 1),
	))
	answers := appraisal.Answers{
		"zero-max": appraisal.Numeric(4),
		"text":     appraisal.Text("great"),
		"ok":       appraisal.Numeric(5),
	}

	res := appraisal.Aggregator{}.AggregateCategory(appraisal.CategoryCommon, cat, answers)
	assertDec(t, 0, res.Items[0].Percent)
	assertDec(t, 0, res.Items[1].Percent)
	assertDec(t, 0, res.Items[2].Percent)
	assertDec(t, 25, res.Percent)
}

func TestAggregateCategory_Empty(t *testing.T) {
	res := appraisal.Aggregator{Scale: zeroToFive()}.AggregateCategory(appraisal.CategoryRole, appraisal.GatherLines(), nil)
	assertDec(t, 0, res.Percent)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestItemPercent_ReviewerSplit(t *testing.T) {
	fw := &appraisal.ReviewerFramework{
		Lines: []appraisal.ReviewerWeight{
			{Type: appraisal.ReviewerSelf, Weight: d(50)},
			{Type: appraisal.ReviewerPeer, Weight: d(50)},
		},
	}
	ans := appraisal.ReviewerSplit(map[appraisal.ReviewerType]float64{"self": 4, "peer": 2})
	meta := appraisal.CatalogItem{Code: "teamwork", MaxScore: d(5), Weight: d(1)}

	pct, raw := appraisal.Aggregator{Scale: zeroToFive(), Framework: fw}.ItemPercent(meta, ans)
	assertDec(t, 3, raw)
	assertDec(t, 60, pct)

	// Without a framework a split has no meaning
	pct, raw = appraisal.Aggregator{Scale: zeroToFive()}.ItemPercent(meta, ans)
	assertDec(t, 0, raw)
	assertDec(t, 0, pct)
}

func TestItemPercent_RoundsPercentKeepsRaw(t *testing.T) {
	meta := appraisal.CatalogItem{Code: "x", MaxScore: d(3), Weight: d(1)}
	pct, raw := appraisal.Aggregator{}.ItemPercent(meta, appraisal.Numeric(1))
	assertDec(t, 33.33, pct)
	assertDec(t, 1, raw)
}
