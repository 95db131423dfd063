// Package export renders scoreboards into downloadable spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in an exported workbook.
const SheetName = "Scoreboard"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header returns the column titles of the exported sheet.
//
//	Team | 1..9 | OUT | 10..18 | IN | TOTAL | TO PAR
func Header() []string {
	h := []string{"Team"}
	for i := 1; i <= scoring.NineSize; i++ {
		h = append(h, strconv.Itoa(i))
	}
	h = append(h, "OUT")
	for i := scoring.NineSize + 1; i <= scoring.Holes; i++ {
		h = append(h, strconv.Itoa(i))
	}
	return append(h, "IN", "TOTAL", "TO PAR")
}

// WriteScoreboard writes the scoreboard as an XLSX workbook: a header row, a
// par row, then one row per team in leaderboard order. Unplayed holes are
// left empty.
func WriteScoreboard(w io.Writer, sb *model.Scoreboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{toRow(Header())}
	rows = append(rows, parRow(&sb.Course))
	for _, st := range sb.Teams {
		rows = append(rows, teamRow(st))
	}

	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", idx+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header()), 2)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func toRow(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func parRow(c *model.Course) []any {
	row := []any{"Par"}
	for i := 0; i < scoring.NineSize; i++ {
		row = append(row, c.Pars[i])
	}
	row = append(row, c.FrontNinePar())
	for i := scoring.NineSize; i < scoring.Holes; i++ {
		row = append(row, c.Pars[i])
	}
	return append(row, c.BackNinePar(), c.TotalPar(), "")
}

func teamRow(st model.Standing) []any {
	cell := func(v *int) any {
		if v == nil {
			return nil
		}
		return *v
	}
	row := []any{st.Team.Name}
	for i := 0; i < scoring.NineSize; i++ {
		row = append(row, cell(st.Team.Holes[i]))
	}
	row = append(row, cell(st.Summary.Front.Score))
	for i := scoring.NineSize; i < scoring.Holes; i++ {
		row = append(row, cell(st.Team.Holes[i]))
	}
	toPar := ""
	if st.Summary.Total.Played > 0 {
		toPar = scoring.FormatToPar(st.Summary.Total.ToPar)
	}
	return append(row, cell(st.Summary.Back.Score), cell(st.Summary.Total.Score), toPar)
}
