// Package report exports a tutoring session as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sigma-teacher/tutor/internal/agent"
)

const (
	ProgressSheet = "Progress"
	HistorySheet  = "History"
)

var (
	progressHeader = []any{"Topic", "Status", "Level", "Attempts", "Correct", "Comprehension"}
	historyHeader  = []any{"Time", "Role", "Message"}
)

// Write renders s as an xlsx workbook with a per-topic progress sheet and
// the conversation history.
func Write(w io.Writer, s *agent.Session) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ProgressSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeProgress(f, s, bold); err != nil {
		return err
	}
	if err := writeHistory(f, s, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeProgress(f *excelize.File, s *agent.Session, bold int) error {
	rows := [][]any{progressHeader}
	for _, t := range s.Domain.Topics {
		_, p, _ := s.Student.Progress(t.Name)
		rows = append(rows, []any{t.Name, string(p.Status), string(p.Level()), p.Attempts, p.CorrectCount, p.Comprehension})
	}

	correct, attempts := s.Student.Totals()
	rows = append(rows,
		[]any{},
		[]any{"Session", s.ID},
		[]any{"Active topic", s.ActiveTopic},
		[]any{"Status", string(s.Status)},
		[]any{"Understood", s.Student.Understood()},
		[]any{"Correct answers", correct},
		[]any{"Attempts", attempts},
		[]any{"Overall progress", s.Student.OverallProgress},
		[]any{"Overall level", string(s.Student.OverallLevel)},
	)

	if err := setRows(f, ProgressSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(ProgressSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetColWidth(ProgressSheet, "A", "A", 32)
}

func writeHistory(f *excelize.File, s *agent.Session, bold int) error {
	rows := [][]any{historyHeader}
	for _, turn := range s.History {
		rows = append(rows, []any{turn.At.UTC().Format(time.RFC3339), string(turn.Role), turn.Content})
	}

	if err := setRows(f, HistorySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(HistorySheet, "A1", "C1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(HistorySheet, "A", "A", 22); err != nil {
		return err
	}
	return f.SetColWidth(HistorySheet, "C", "C", 100)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
