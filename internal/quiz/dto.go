package quiz

type GenerateRequest struct {
	WeekNumber   *int       `json:"week_number" validate:"omitempty,min=1,max=52"`
	Topic        *string    `json:"topic" validate:"omitempty,max=200"`
	NumQuestions int        `json:"num_questions" validate:"min=0"`
	Difficulty   Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// normalize applies the defaults and clamps the question count to 1..MaxQuestions.
func (r GenerateRequest) normalize() GenerateRequest {
	if r.NumQuestions <= 0 {
		r.NumQuestions = DefaultQuestions
	}
	if r.NumQuestions > MaxQuestions {
		r.NumQuestions = MaxQuestions
	}
	switch r.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		r.Difficulty = DifficultyMedium
	}
	return r
}

type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,len=1"`
}

type SubmitRequest struct {
	ConfirmPartial bool `json:"confirm_partial"`
}

type CancelRequest struct {
	Confirm bool `json:"confirm"`
}
