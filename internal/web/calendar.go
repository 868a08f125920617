package web

import (
	"fmt"
	"time"
)

// CalendarCell is one day cell of the month grid.
type CalendarCell struct {
	Day      int
	Date     string // YYYY-MM-DD, empty for padding cells
	Past     bool
	Today    bool
	Selected bool
}

// CalendarMonth is the template data for the Monday-first month grid.
type CalendarMonth struct {
	Year  int
	Month time.Month
	Label string
	Weeks [][]CalendarCell
	Prev  string // YYYY-MM target, empty when the previous month is fully past
	Next  string // YYYY-MM target
}

// MonthGrid builds a Monday-first month grid. Cells before today are
// marked past and render as non-selectable.
func MonthGrid(year int, month time.Month, today time.Time, selected string) CalendarMonth {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	weekdayOffset := int(firstDay.Weekday())
	if weekdayOffset == 0 {
		weekdayOffset = 7 // make Monday-first grid
	}
	days := daysIn(month, year)
	todayStr := today.Format("2006-01-02")

	grid := CalendarMonth{
		Year:  year,
		Month: month,
		Label: fmt.Sprintf("%s %d", month.String(), year),
		Next:  firstDay.AddDate(0, 1, 0).Format("2006-01"),
	}
	prev := firstDay.AddDate(0, -1, 0)
	if !prev.AddDate(0, 1, -1).Before(startOfDay(today)) {
		grid.Prev = prev.Format("2006-01")
	}

	day := 1
	for day <= days {
		week := make([]CalendarCell, 0, 7)
		for col := 1; col <= 7; col++ {
			if len(grid.Weeks) == 0 && col < weekdayOffset {
				week = append(week, CalendarCell{})
				continue
			}
			if day > days {
				week = append(week, CalendarCell{})
				continue
			}
			dateStr := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
			week = append(week, CalendarCell{
				Day:      day,
				Date:     dateStr,
				Past:     dateStr < todayStr,
				Today:    dateStr == todayStr,
				Selected: dateStr == selected,
			})
			day++
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
