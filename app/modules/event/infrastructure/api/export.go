package eventapi

import (
	"bytes"
	"fmt"
	"strings"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Roster"

var rosterHeaders = []string{"Role", "Capacity", "#", "Player", "Player ID", "Class", "Flex"}

// RosterWorkbook exports rec as a single-sheet workbook: a short header block followed by
// one row per player in display order.
func RosterWorkbook(rec *eventdomain.EventRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	starts := ""
	if rec.StartsAt != nil {
		starts = rec.StartsAt.UTC().Format("2006-01-02 15:04 MST")
	}
	meta := [][]any{
		{"Event", rec.Title},
		{"Kind", eventdomain.KindProfile(rec.Kind).Label},
		{"Starts", starts},
		{"Duration", rec.Duration.String()},
		{"Leader", rec.LeaderID},
	}
	row := 1
	for _, m := range meta {
		if err := setRow(f, row, m); err != nil {
			return nil, err
		}
		row++
	}
	row++

	headerRow := row
	header := make([]any, len(rosterHeaders))
	for i, h := range rosterHeaders {
		header[i] = h
	}
	if err := setRow(f, row, header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(rosterHeaders), headerRow)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(rosterSheet, fmt.Sprintf("A%d", headerRow), last, bold); err != nil {
		return nil, err
	}
	row++

	for _, bucket := range rec.Roster.Buckets() {
		if len(bucket.Players) == 0 {
			if err := setRow(f, row, []any{bucket.Role.Label(), bucket.Capacity.String()}); err != nil {
				return nil, err
			}
			row++
			continue
		}
		for i, p := range bucket.Players {
			if err := setRow(f, row, []any{
				bucket.Role.Label(),
				bucket.Capacity.String(),
				i + 1,
				p.Name,
				p.ID,
				string(p.Class),
				flexLabel(p.Flex),
			}); err != nil {
				return nil, err
			}
			row++
		}
	}

	if err := f.SetColWidth(rosterSheet, "A", "G", 16); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(rosterSheet, cell, &values)
}

func flexLabel(roles []eventdomain.Role) string {
	labels := make([]string, 0, len(roles))
	for _, r := range roles {
		labels = append(labels, r.Label())
	}
	return strings.Join(labels, ", ")
}
