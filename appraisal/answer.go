/*
answer.go - Tagged answer values supplied by the survey collaborator

PURPOSE:
  An appraisal answer is either a single number or a per-reviewer split
  ({"self": 4, "peer": 3.5}). The two shapes share one field in the answer
  map, so Answer is an explicit tagged variant: the caller picks the kind
  when constructing it, or the JSON decoder picks it from the token type.

KINDS:
  AnswerNone:          No value supplied (scores as 0)
  AnswerNumeric:       Single raw score
  AnswerReviewerSplit: reviewer type -> raw score
  AnswerInvalid:       Supplied but not coercible to a number (scores as 0)

DECODING RULES (UnmarshalJSON):
  number            -> Numeric
  "4.5" (string)    -> Numeric when it parses, Invalid otherwise
  "" / null         -> None
  {"self": 4, ...}  -> ReviewerSplit (non-numeric entries become 0)
  true/false/[...]  -> Invalid

SEE ALSO:
  - aggregate.go: Resolves an Answer into a raw value
  - engine.go: Simulate parses a whole answer payload
*/
package appraisal

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ANSWER
// =============================================================================

type AnswerKind uint8

const (
	AnswerNone AnswerKind = iota
	AnswerNumeric
	AnswerReviewerSplit
	AnswerInvalid
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerNumeric:
		return "numeric"
	case AnswerReviewerSplit:
		return "reviewer_split"
	case AnswerInvalid:
		return "invalid"
	}
	return "none"
}

// Answer is the raw input for one template item.
type Answer struct {
	Kind  AnswerKind
	Value decimal.Decimal
	Split map[ReviewerType]decimal.Decimal
}

// Numeric builds a single-value answer.
func Numeric(v float64) Answer {
	return Answer{Kind: AnswerNumeric, Value: decimal.NewFromFloat(v)}
}

// NumericDecimal builds a single-value answer from a decimal.
func NumericDecimal(v decimal.Decimal) Answer {
	return Answer{Kind: AnswerNumeric, Value: v}
}

// ReviewerSplit builds a per-reviewer answer.
func ReviewerSplit(scores map[ReviewerType]float64) Answer {
	split := make(map[ReviewerType]decimal.Decimal, len(scores))
	for t, v := range scores {
		split[t] = decimal.NewFromFloat(v)
	}
	return Answer{Kind: AnswerReviewerSplit, Split: split}
}

// NoAnswer is the zero answer.
func NoAnswer() Answer {
	return Answer{Kind: AnswerNone}
}

// Text coerces a free-text survey value. Blank text is no answer;
// text that is not a number is an invalid answer.
func Text(s string) Answer {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoAnswer()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Answer{Kind: AnswerInvalid}
	}
	return NumericDecimal(d)
}

// UnmarshalJSON decodes either a number, a numeric string or a reviewer map.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = NoAnswer()
		return nil
	}

	switch data[0] {
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		split := make(map[ReviewerType]decimal.Decimal, len(raw))
		for k, v := range raw {
			split[ReviewerType(strings.TrimSpace(k))] = coerceNumber(v)
		}
		*a = Answer{Kind: AnswerReviewerSplit, Split: split}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Text(s)
	case '[', 't', 'f':
		*a = Answer{Kind: AnswerInvalid}
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			*a = Answer{Kind: AnswerInvalid}
			return nil
		}
		*a = NumericDecimal(d)
	}
	return nil
}

// MarshalJSON writes numbers unquoted so a snapshot round-trips.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNumeric:
		return []byte(a.Value.String()), nil
	case AnswerReviewerSplit:
		out := make(map[ReviewerType]json.Number, len(a.Split))
		for t, v := range a.Split {
			out[t] = json.Number(v.String())
		}
		return json.Marshal(out)
	}
	return []byte("null"), nil
}

// coerceNumber turns a JSON token into a decimal, 0 when it isn't numeric.
func coerceNumber(raw json.RawMessage) decimal.Decimal {
	var ans Answer
	if err := ans.UnmarshalJSON(raw); err != nil || ans.Kind != AnswerNumeric {
		return decimal.Zero
	}
	return ans.Value
}

// =============================================================================
// ANSWERS
// =============================================================================

// Answers maps a template item code to its answer.
type Answers map[string]Answer

// Get returns the answer for code, NoAnswer when absent.
func (a Answers) Get(code string) Answer {
	if ans, ok := a[code]; ok {
		return ans
	}
	return NoAnswer()
}

// ParseAnswers decodes a whole answer payload. The payload must be a JSON
// object; anything else is an InputValidationError. An empty payload is an
// empty answer set.
func ParseAnswers(data []byte) (Answers, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Answers{}, nil
	}
	if data[0] != '{' {
		return nil, &InputValidationError{Message: "answers JSON must be an object"}
	}
	var answers Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, &InputValidationError{Message: "invalid answers JSON", Err: err}
	}
	if answers == nil {
		answers = Answers{}
	}
	return answers, nil
}

// AnswerKey derives the answer map key for a survey question: the question's
// variable name when set, otherwise its identifier.
func AnswerKey(variable string, questionID int64) string {
	if v := strings.TrimSpace(variable); v != "" {
		return v
	}
	return strconv.FormatInt(questionID, 10)
}
