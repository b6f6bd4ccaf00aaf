package placebet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/okian/gridbet/internal/domain/assignment"
	"github.com/okian/gridbet/internal/domain/model"
)

var (
	heading = color.New(color.FgYellow, color.Bold) //nolint:gochecknoglobals // shared styles
	success = color.New(color.FgGreen)              //nolint:gochecknoglobals // shared styles
	warning = color.New(color.FgRed)                //nolint:gochecknoglobals // shared styles
)

func renderSlots(w io.Writer, a *assignment.Assignment) {
	_, _ = heading.Fprintf(w, "\nRanking (%d/%d)\n", a.Filled(), a.Size())
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pos", "No", "Driver", "Team"})
	for _, s := range a.Slots() {
		if !s.Filled() {
			table.Append([]string{strconv.Itoa(s.Position), "", "-", ""})
			continue
		}
		c := s.Candidate
		table.Append([]string{strconv.Itoa(s.Position), strconv.Itoa(c.Number), c.FullName(), c.Team})
	}
	table.Render()
}

func renderPool(w io.Writer, a *assignment.Assignment) {
	avail := a.Available()
	if len(avail) == 0 {
		return
	}
	_, _ = heading.Fprintf(w, "\nAvailable drivers (%d)\n", len(avail))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"No", "Driver", "Team"})
	for _, c := range avail {
		table.Append([]string{strconv.Itoa(c.Number), c.FullName(), c.Team})
	}
	table.Render()
}

func renderStandings(w io.Writer, competitionID int, rows []model.Standing) {
	_, _ = heading.Fprintf(w, "\nStandings for competition %d\n", competitionID)
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No standings yet.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Player", "Points", "Races", "Exact", "Partial"})
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.Rank),
			r.DisplayName(),
			strconv.Itoa(r.TotalPoints),
			strconv.Itoa(r.RacesPredicted),
			strconv.Itoa(r.ExactPredictions),
			strconv.Itoa(r.PartialPredictions),
		})
	}
	table.Render()
}
