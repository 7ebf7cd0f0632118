package document

import (
	"fmt"

	"github.com/google/uuid"
)

func normalizeQuestionType(value string) string {
	switch value {
	case QuestionCheckbox, QuestionText, QuestionRating:
		return value
	}
	return QuestionDropdown
}

func normalizeRatingStyle(value string) string {
	if value == RatingNumbers {
		return RatingNumbers
	}
	return RatingStars
}

// newQuestionID generates a stable default id for a question submitted
// without one. The position prefix keeps ids readable in the spreadsheet;
// the UUID suffix makes collisions across re-saves impossible.
func newQuestionID(position int) string {
	return fmt.Sprintf("survey-q-%d-%s", position+1, uuid.New().String())
}

// sanitizeQuestions normalizes a submitted question list against the stored
// one. A non-array input keeps the stored list. Dropdown/checkbox questions
// that end up with zero options are dropped; if that empties the list, the
// stored list is restored in full so a form never loses all its questions
// to one bad save.
func sanitizeQuestions(incoming any, fallback []Question) []Question {
	items, ok := incoming.([]any)
	if !ok {
		return fallback
	}

	sanitized := make([]Question, 0, len(items))
	for i, item := range items {
		raw, _ := rawObject(item)

		var fb Question
		hasFallback := i < len(fallback)
		if hasFallback {
			fb = fallback[i]
		}

		rawOptions, _ := rawField(raw, "options")
		options := sanitizeStringSlice(rawOptions)
		fallbackOptions := trimStrings(fb.Options)

		id := rawString(raw, "id", "")
		if id == "" {
			id = fb.ID
		}
		if id == "" {
			id = newQuestionID(i)
		}

		typ := rawString(raw, "type", "")
		if typ == "" {
			typ = fb.Type
		}
		typ = normalizeQuestionType(typ)

		requiresOptions := typ == QuestionDropdown || typ == QuestionCheckbox
		normalizedOptions := []string{}
		if requiresOptions {
			normalizedOptions = options
			if len(normalizedOptions) == 0 {
				normalizedOptions = fallbackOptions
			}
			if len(normalizedOptions) == 0 {
				// No usable options anywhere; the question cannot render.
				continue
			}
		}

		title := rawString(raw, "title", "")
		if title == "" {
			title = fb.Title
		}
		if title == "" {
			title = fmt.Sprintf("設問%d", i+1)
		}

		requiredDefault := true
		allowMultipleDefault := false
		ratingEnabledDefault := false
		includeDefault := true
		if hasFallback {
			requiredDefault = fb.Required
			allowMultipleDefault = fb.AllowMultiple
			ratingEnabledDefault = fb.RatingEnabled
			includeDefault = fb.IncludeInReview
		}

		q := Question{
			ID:              id,
			Title:           title,
			Type:            typ,
			Options:         normalizedOptions,
			Required:        coerceField(raw, "required", requiredDefault),
			IncludeInReview: coerceField(raw, "includeInReview", includeDefault),
			RatingStyle:     RatingStars,
		}
		if typ == QuestionCheckbox {
			q.AllowMultiple = coerceField(raw, "allowMultiple", allowMultipleDefault)
		}
		if typ == QuestionRating {
			style := rawString(raw, "ratingStyle", "")
			if style == "" {
				style = fb.RatingStyle
			}
			q.RatingStyle = normalizeRatingStyle(style)
		} else {
			q.RatingEnabled = coerceField(raw, "ratingEnabled", ratingEnabledDefault)
		}
		if typ == QuestionText {
			q.Placeholder = rawString(raw, "placeholder", fb.Placeholder)
		}

		sanitized = append(sanitized, q)
	}

	if len(sanitized) == 0 {
		return fallback
	}
	return sanitized
}

// coerceField reads a boolean-ish field, falling back when absent or
// unrecognizable.
func coerceField(m Raw, key string, fallback bool) bool {
	v, ok := rawField(m, key)
	if !ok {
		return fallback
	}
	return CoerceBool(v, fallback)
}
