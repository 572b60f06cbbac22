package calendar

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Calendar"

// WriteExcel writes the rendered grid as a workbook: one row per room, one
// column per date, bookings as merged cells in their segment colour and
// non-sellable blocks greyed out.
func WriteExcel(w io.Writer, v View) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	blocked, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#d1d5db"}},
		Font: &excelize.Font{Italic: true},
	})
	if err != nil {
		return err
	}
	styles := map[string]int{}
	barStyle := func(color string) (int, error) {
		if id, ok := styles[color]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Font:      &excelize.Font{Color: "#ffffff"},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		})
		if err == nil {
			styles[color] = id
		}
		return id, err
	}

	const firstDateCol = 3
	if err := f.SetSheetRow(exportSheet, "A1", &[]any{"Room", "Type"}); err != nil {
		return err
	}
	for i, d := range v.Dates {
		cell, _ := excelize.CoordinatesToCellName(firstDateCol+i, 1)
		label := fmt.Sprintf("%s %s (%d%%)", d.Weekday, d.Date, d.Occupancy)
		if err := f.SetCellValue(exportSheet, cell, label); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(firstDateCol + len(v.Dates) - 1)
	if len(v.Dates) == 0 {
		lastCol = "B"
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", header); err != nil {
		return err
	}
	_ = f.SetColWidth(exportSheet, "A", "B", 14)
	if len(v.Dates) > 0 {
		_ = f.SetColWidth(exportSheet, "C", lastCol, 18)
	}

	row := 2
	for _, g := range v.Groups {
		for _, r := range g.Rooms {
			if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &[]any{r.RoomNumber, g.RoomType}); err != nil {
				return err
			}
			for _, bl := range r.Blocks {
				if bl.AllowSell {
					continue
				}
				for c := 0; c < bl.Span; c++ {
					cell, _ := excelize.CoordinatesToCellName(firstDateCol+bl.StartColumn+c, row)
					_ = f.SetCellValue(exportSheet, cell, strings.ReplaceAll(bl.Type, "_", " "))
					if err := f.SetCellStyle(exportSheet, cell, cell, blocked); err != nil {
						return err
					}
				}
			}
			for _, b := range r.Bars {
				from, _ := excelize.CoordinatesToCellName(firstDateCol+b.StartColumn, row)
				to, _ := excelize.CoordinatesToCellName(firstDateCol+b.StartColumn+b.Span-1, row)
				label := b.GuestName
				if b.OTABadge != "" {
					label += " [" + b.OTABadge + "]"
				}
				if b.Conflict {
					label += " !"
				}
				if err := f.SetCellValue(exportSheet, from, label); err != nil {
					return err
				}
				if b.Span > 1 {
					if err := f.MergeCell(exportSheet, from, to); err != nil {
						return err
					}
				}
				style, err := barStyle(b.Color)
				if err != nil {
					return err
				}
				if err := f.SetCellStyle(exportSheet, from, to, style); err != nil {
					return err
				}
			}
			row++
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      1,
		TopLeftCell: "C2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
