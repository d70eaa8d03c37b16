package services

import (
	"fmt"
	"io"

	"github.com/alimgiray/pawrank/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sitters"

var exportHeader = []interface{}{"Name", "Email", "Phone", "Stays", "Sitter Score", "Ratings Score", "Overall Rank"}

// ExportService writes sitter rankings as spreadsheets
type ExportService struct {
	sitterService *SitterService
}

// NewExportService creates a new export service
func NewExportService(sitterService *SitterService) *ExportService {
	return &ExportService{sitterService: sitterService}
}

// ExportSitters writes the sitters matching q to w as an xlsx workbook
func (s *ExportService) ExportSitters(w io.Writer, q models.SitterQuery) error {
	sitters, err := s.sitterService.ListSitters(q)
	if err != nil {
		return err
	}
	return WriteSittersWorkbook(w, sitters)
}

// WriteSittersWorkbook renders one row per sitter under a bold header row
func WriteSittersWorkbook(w io.Writer, sitters []*models.Sitter) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, sitter := range sitters {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []interface{}{
			sitter.Name,
			sitter.EmailAddress,
			sitter.PhoneNumber,
			sitter.NumberOfStays(),
			sitter.SitterScore(),
			sitter.RatingsScore(),
			sitter.OverallSitterRank(),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write sitter %s: %w", sitter.ID, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "C", 28); err != nil {
		return err
	}

	return f.Write(w)
}
