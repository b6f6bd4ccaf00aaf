package assignment

import "github.com/okian/gridbet/internal/domain/model"

// Serialize projects a complete assignment onto the prediction list, one
// entry per position in ascending order.
func (a *Assignment) Serialize() ([]model.Prediction, error) {
	if !a.IsComplete() {
		return nil, &IncompleteError{Filled: a.Filled(), Size: a.size}
	}
	out := make([]model.Prediction, a.size)
	for i, idx := range a.slots {
		out[i] = model.Prediction{Driver: a.pool[idx].ID, Position: i + 1}
	}
	return out, nil
}

// Submission wraps Serialize into the backend payload for a race and bet type.
func (a *Assignment) Submission(raceID, betTypeID int) (model.Submission, error) {
	preds, err := a.Serialize()
	if err != nil {
		return model.Submission{}, err
	}
	return model.Submission{Race: raceID, BetType: betTypeID, Predictions: preds}, nil
}
