// Package export renders a day's reservations as an xlsx workbook for
// the dashboard download action.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/compabray/agenda-frontend/internal/agendaapi"
)

var header = []string{"Start", "End", "Customer", "Phone", "Email", "Staff"}

// Filename returns the download name for a day export, e.g.
// "reservations_2024-06-10.xlsx".
func Filename(date string) string {
	return fmt.Sprintf("reservations_%s.xlsx", date)
}

// WriteReservations writes one sheet named after the date with one row
// per reservation, resolving staff IDs to names where possible.
func WriteReservations(w io.Writer, date string, reservations []agendaapi.Reservation, staff []agendaapi.Staff) error {
	staffNames := make(map[string]string, len(staff))
	for _, s := range staff {
		staffNames[s.ID] = s.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := date
	if len(sheet) > 31 { // Excel sheet name limit
		sheet = sheet[:31]
	}
	f.SetSheetName("Sheet1", sheet)

	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for i, res := range reservations {
		staffName := staffNames[res.StaffID]
		if staffName == "" {
			staffName = res.StaffID
		}
		row := []any{
			res.Start.Format("15:04"),
			res.End.Format("15:04"),
			res.Customer.Name,
			res.Customer.Phone,
			res.Customer.Email,
			staffName,
		}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
