package model

// ExistingPrediction is one row of a bet previously stored by the backend.
// Rows arrive unsorted and may reference positions or drivers that are no
// longer valid for the current form.
type ExistingPrediction struct {
	Driver            CandidateID `json:"driver"`
	PredictedPosition int         `json:"predicted_position"`
}

// Prediction pairs a driver with its predicted finishing position.
type Prediction struct {
	Driver   CandidateID `json:"driver"`
	Position int         `json:"position"`
}

// Submission is the payload accepted by the backend's bulk bet endpoint.
type Submission struct {
	Race        int          `json:"race"`
	BetType     int          `json:"bet_type"`
	Predictions []Prediction `json:"predictions"`
}
