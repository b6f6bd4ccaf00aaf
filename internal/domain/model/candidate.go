// Package model contains domain models passed between layers.
package model

import "fmt"

// CandidateID identifies a driver in the betting backend.
type CandidateID int

// Candidate is a driver eligible for ranked placement.
// Candidates are supplied by the backend and never modified locally.
type Candidate struct {
	ID        CandidateID `json:"id"`
	Number    int         `json:"number"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Team      string      `json:"team"`
}

// FullName returns "First Last".
func (c Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// String renders the candidate the way the betting form labels it.
func (c Candidate) String() string {
	return fmt.Sprintf("#%d %s (%s)", c.Number, c.FullName(), c.Team)
}

// BetType describes a kind of bet offered by the backend, e.g. "top10".
type BetType struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Code              string `json:"code"`
	IsActive          bool   `json:"is_active"`
	RequiresPositions bool   `json:"requires_positions"`
	MaxSelections     int    `json:"max_selections"`
}

// Standing is one row of a competition leaderboard.
type Standing struct {
	Rank               int    `json:"rank"`
	UserEmail          string `json:"user_email"`
	UserDisplayName    string `json:"user_display_name"`
	TotalPoints        int    `json:"total_points"`
	RacesPredicted     int    `json:"races_predicted"`
	ExactPredictions   int    `json:"exact_predictions"`
	PartialPredictions int    `json:"partial_predictions"`
}

// DisplayName prefers the profile display name and falls back to the email.
func (s Standing) DisplayName() string {
	if s.UserDisplayName != "" {
		return s.UserDisplayName
	}
	return s.UserEmail
}
