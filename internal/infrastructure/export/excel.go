// Package export renders a study snapshot as an XLSX workbook for
// download and offline review.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXCEL EXPORT
// One sheet per collection plus a summary sheet. Column layouts follow
// the on-screen tables so an exported workbook reads the same way the
// app does.
// ══════════════════════════════════════════════════════════════════════════════

const (
	sheetSummary    = "Summary"
	sheetVocabulary = "Vocabulary"
	sheetSkills     = "Skills"
	sheetPortfolio  = "Portfolio"

	dateLayout = "2006-01-02"
)

// ExcelExporter renders snapshots to XLSX.
type ExcelExporter struct{}

// NewExcelExporter creates the exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Write renders the snapshot into w as a workbook.
func (e *ExcelExporter) Write(w io.Writer, snap *progress.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	if err := e.writeSummary(f, snap); err != nil {
		return err
	}
	if err := e.writeVocabulary(f, snap); err != nil {
		return err
	}
	if err := e.writeSkills(f, snap); err != nil {
		return err
	}
	if err := e.writePortfolio(f, snap); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func (e *ExcelExporter) writeSummary(f *excelize.File, snap *progress.Snapshot) error {
	vocab := snap.VocabularyStats()
	skills := snap.SkillStats()
	portfolio := snap.PortfolioSummary()

	rows := [][]any{
		{"Exported", snap.LoadedAt.Format(dateLayout)},
		{},
		{"Collection", "Total", "Not started", "In progress", "Mastered"},
		{"Vocabulary", vocab.Total, vocab.NotStarted, vocab.InProgress, vocab.Mastered},
		{"Skills", skills.Total, skills.NotStarted, skills.InProgress, skills.Mastered},
		{},
		{"Portfolio entries", portfolio.Total},
		{"Featured", portfolio.Top},
		{"YouTube", portfolio.YouTube},
		{"SoundCloud", portfolio.SoundCloud},
		{},
		{"Categories in use", snap.CategoriesInUse()},
		{"Badges earned", len(snap.Settings.EarnedBadges)},
	}
	return writeRows(f, sheetSummary, rows)
}

func (e *ExcelExporter) writeVocabulary(f *excelize.File, snap *progress.Snapshot) error {
	if _, err := f.NewSheet(sheetVocabulary); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	rows := [][]any{{"Word", "Translation", "Category", "Status", "Added"}}
	for _, item := range snap.Vocabulary {
		rows = append(rows, []any{
			item.Word, item.Translation, item.Category,
			string(item.Status), item.DateAdded.Format(dateLayout),
		})
	}
	return writeRows(f, sheetVocabulary, rows)
}

func (e *ExcelExporter) writeSkills(f *excelize.File, snap *progress.Snapshot) error {
	if _, err := f.NewSheet(sheetSkills); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	rows := [][]any{{"Skill", "Status", "Subtasks", "Subtasks mastered", "Added"}}
	for _, sk := range snap.Skills {
		mastered := 0
		for _, st := range sk.Subtasks {
			if st.Status == progress.StatusMastered {
				mastered++
			}
		}
		rows = append(rows, []any{
			sk.Name, string(sk.Status), len(sk.Subtasks), mastered,
			sk.DateAdded.Format(dateLayout),
		})
	}
	return writeRows(f, sheetSkills, rows)
}

func (e *ExcelExporter) writePortfolio(f *excelize.File, snap *progress.Snapshot) error {
	if _, err := f.NewSheet(sheetPortfolio); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}
	rows := [][]any{{"Title", "Type", "Link", "Featured", "Added"}}
	for _, entry := range snap.Portfolio {
		featured := ""
		if entry.IsTop {
			featured = "yes"
		}
		rows = append(rows, []any{
			entry.Title, string(entry.Type), entry.Link, featured,
			entry.DateAdded.Format(dateLayout),
		})
	}
	return writeRows(f, sheetPortfolio, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: set row: %w", err)
		}
	}
	return nil
}
