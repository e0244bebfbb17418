package okr

import (
	"strings"

	"github.com/warp/appraisal-engine/appraisal"
)

// Answers turns key result progress into appraisal answers. Each key result
// is keyed by its code (else its name) and each objective by its code when
// set. Values are progress percentages, so the template items they feed
// should use a max score of 100.
func Answers(objectives ...Objective) appraisal.Answers {
	out := appraisal.Answers{}
	for _, o := range objectives {
		if code := strings.TrimSpace(o.Code); code != "" {
			out[code] = appraisal.NumericDecimal(o.Progress())
		}
		for _, kr := range o.KeyResults {
			key := strings.TrimSpace(kr.Code)
			if key == "" {
				key = strings.TrimSpace(kr.Name)
			}
			if key == "" {
				continue
			}
			out[key] = appraisal.NumericDecimal(kr.Progress())
		}
	}
	return out
}

// TemplateAnswers does the same for the key results of objective templates.
func TemplateAnswers(templates ...ObjectiveTemplate) appraisal.Answers {
	out := appraisal.Answers{}
	for _, t := range templates {
		for _, kr := range t.KeyResults {
			key := strings.TrimSpace(kr.Code)
			if key == "" {
				key = strings.TrimSpace(kr.Title)
			}
			if key == "" {
				continue
			}
			out[key] = appraisal.NumericDecimal(kr.Progress())
		}
	}
	return out
}

// WithProgress returns a copy of answers completed with the progress of
// objectives and objective templates. Keys already present in answers win.
func WithProgress(answers appraisal.Answers, objectives []Objective, templates []ObjectiveTemplate) appraisal.Answers {
	out := make(appraisal.Answers, len(answers))
	for _, progress := range []appraisal.Answers{TemplateAnswers(templates...), Answers(objectives...)} {
		for k, v := range progress {
			out[k] = v
		}
	}
	for k, v := range answers {
		out[k] = v
	}
	return out
}
