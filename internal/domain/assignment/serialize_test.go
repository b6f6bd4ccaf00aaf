package assignment_test

import (
	"errors"
	"testing"

	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAssignment_Serialize(t *testing.T) {
	Convey("Given 7 of 10 positions filled", t, func() {
		a := loaded(20)
		for i := 0; i < 7; i++ {
			_, err := a.PlaceFirstEmpty(id(i))
			So(err, ShouldBeNil)
		}

		Convey("Then the assignment is incomplete", func() {
			So(a.IsComplete(), ShouldBeFalse)

			preds, err := a.Serialize()
			So(preds, ShouldBeNil)
			So(errors.Is(err, assignment.ErrIncompleteAssignment), ShouldBeTrue)

			var inc *assignment.IncompleteError
			So(errors.As(err, &inc), ShouldBeTrue)
			So(inc.Filled, ShouldEqual, 7)
			So(inc.Size, ShouldEqual, 10)
			So(err.Error(), ShouldContainSubstring, "7 of 10")
		})
	})

	Convey("Given a prior bet for positions 1 and 2", t, func() {
		a := loaded(20)
		applied := a.Prefill([]model.ExistingPrediction{
			{Driver: id(5), PredictedPosition: 2},
			{Driver: id(3), PredictedPosition: 1},
		})
		So(applied, ShouldEqual, 2)

		Convey("When the remaining eight positions are filled", func() {
			for i := 10; i < 18; i++ {
				_, err := a.PlaceFirstEmpty(id(i))
				So(err, ShouldBeNil)
			}

			Convey("Then serialization yields 1..10 once each, keeping the prior picks", func() {
				So(a.IsComplete(), ShouldBeTrue)
				preds, err := a.Serialize()
				So(err, ShouldBeNil)
				So(len(preds), ShouldEqual, 10)

				positions := make(map[int]bool)
				drivers := make(map[model.CandidateID]bool)
				for i, p := range preds {
					So(p.Position, ShouldEqual, i+1)
					positions[p.Position] = true
					drivers[p.Driver] = true
				}
				So(len(positions), ShouldEqual, 10)
				So(len(drivers), ShouldEqual, 10)
				So(preds[0].Driver, ShouldEqual, id(3))
				So(preds[1].Driver, ShouldEqual, id(5))
			})

			Convey("And the submission payload carries race and bet type", func() {
				sub, err := a.Submission(7, 1)
				So(err, ShouldBeNil)
				So(sub.Race, ShouldEqual, 7)
				So(sub.BetType, ShouldEqual, 1)
				So(len(sub.Predictions), ShouldEqual, 10)
			})
		})

		Convey("When submitting right away", func() {
			_, err := a.Submission(7, 1)
			So(errors.Is(err, assignment.ErrIncompleteAssignment), ShouldBeTrue)
		})
	})
}

func TestAssignment_Prefill(t *testing.T) {
	Convey("Given a prior bet with rows that no longer fit", t, func() {
		a := loaded(12)
		So(a.Place(id(11), 9), ShouldBeNil)

		applied := a.Prefill([]model.ExistingPrediction{
			{Driver: id(0), PredictedPosition: 4},
			{Driver: id(1), PredictedPosition: 15},                 // out of range
			{Driver: model.CandidateID(777), PredictedPosition: 1}, // retired driver
			{Driver: id(2), PredictedPosition: 2},
			{Driver: id(2), PredictedPosition: 6}, // listed twice
			{Driver: id(3), PredictedPosition: 0},
		})

		Convey("Then only the valid rows are applied", func() {
			So(applied, ShouldEqual, 2)
			So(occupant(a, 4), ShouldEqual, id(0))
			So(occupant(a, 2), ShouldEqual, id(2))
			So(a.IsAvailable(id(1)), ShouldBeTrue)
			So(a.IsAvailable(id(3)), ShouldBeTrue)
			So(partitionHolds(a), ShouldBeTrue)
		})

		Convey("And earlier placements are discarded", func() {
			So(a.IsAvailable(id(11)), ShouldBeTrue)
		})
	})

	Convey("Given two rows for the same position", t, func() {
		a := loaded(12)
		applied := a.Prefill([]model.ExistingPrediction{
			{Driver: id(0), PredictedPosition: 3},
			{Driver: id(1), PredictedPosition: 3},
		})

		Convey("Then the later row wins and the earlier driver stays available", func() {
			So(applied, ShouldEqual, 1)
			So(occupant(a, 3), ShouldEqual, id(1))
			So(a.IsAvailable(id(0)), ShouldBeTrue)
		})
	})

	Convey("Given no pool", t, func() {
		a := assignment.New()
		applied := a.Prefill([]model.ExistingPrediction{{Driver: id(0), PredictedPosition: 1}})
		So(applied, ShouldEqual, 0)
	})
}
