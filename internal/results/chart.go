package results

import "surveyhub/internal/model"

// ChartKindFor suggests a visualization for a question type. Callers may override it.
func ChartKindFor(t model.QuestionType) model.ChartKind {
	switch t {
	case model.QuestionTypeRadio, model.QuestionTypeYesNo, model.QuestionTypeDropdown, model.QuestionTypeRadioImage:
		return model.ChartCategorical
	case model.QuestionTypeCheckbox, model.QuestionTypeCheckboxImage:
		return model.ChartMultiBar
	case model.QuestionTypeScale, model.QuestionTypeStarRating:
		return model.ChartOrdered
	}
	return model.ChartList
}
