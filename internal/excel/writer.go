// Package excel renders a weekly training plan to an XLSX workbook.
package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/planforge/planforge/internal/plan"
)

const (
	overviewSheet = "Overview"
	planSheet     = "Weekly Plan"
	notesSheet    = "Notes"
)

var planHeaders = []string{"Day", "Title", "Type", "Duration", "Intensity", "Description"}

// Write renders the week to an XLSX file under outputDir and returns the
// file path. baseName (normally the job key) distinguishes athletes in the
// shared output directory:
//
//	{baseName}_training_plan_{weekStart}_to_{weekEnd}.xlsx
func Write(week plan.Week, baseName, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	weekEnd := week.WeekStart.AddDate(0, 0, 6)
	fileName := fmt.Sprintf("%s_training_plan_%s_to_%s.xlsx",
		baseName,
		week.WeekStart.Format("2006-01-02"),
		weekEnd.Format("2006-01-02"))
	path := filepath.Join(outputDir, fileName)

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the overview so it opens first.
	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return "", err
	}
	_ = f.SetCellValue(overviewSheet, "A1", "Training Plan for: "+week.AthleteName)
	_ = f.SetCellValue(overviewSheet, "A2", fmt.Sprintf("Week: %s to %s",
		week.WeekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")))
	_ = f.SetCellValue(overviewSheet, "A4", "Generated on: "+time.Now().Format("2006-01-02 15:04:05"))
	_ = f.SetColWidth(overviewSheet, "A", "A", 48)

	if _, err := f.NewSheet(planSheet); err != nil {
		return "", err
	}
	widths := make([]int, len(planHeaders))
	for i, h := range planHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(planSheet, cell, h)
		widths[i] = len(h)
	}
	for row, w := range week.Workouts {
		values := []string{w.Day, w.Title, w.Type, w.Duration, w.Intensity, w.Description}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(planSheet, cell, v)
			if len(v) > widths[col] {
				widths[col] = len(v)
			}
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(planSheet, col, col, float64(w+2))
	}

	if week.Notes != "" {
		if _, err := f.NewSheet(notesSheet); err != nil {
			return "", err
		}
		_ = f.SetCellValue(notesSheet, "A1", "Training Week Notes:")
		_ = f.SetCellValue(notesSheet, "A2", week.Notes)
		_ = f.SetColWidth(notesSheet, "A", "A", 100)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}
