package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/navaja-dev/barber-academy-api/internal/models"
	appErrors "github.com/navaja-dev/barber-academy-api/pkg/errors"
	"github.com/navaja-dev/barber-academy-api/pkg/export"
)

type gridBuilder interface {
	BuildGrid(ctx context.Context, courseID int64) (*models.AttendanceGrid, error)
}

// ExportService renders the attendance grid as downloadable files: a
// CSV for spreadsheets and a printable PDF sheet for instructors.
type ExportService struct {
	grids      gridBuilder
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	schoolName string
	logger     *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grids gridBuilder, csv *export.CSVExporter, pdf *export.PDFExporter, schoolName string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{grids: grids, csv: csv, pdf: pdf, schoolName: schoolName, logger: logger}
}

const studentHeader = "Estudiante"

// AttendanceCSV renders the grid as CSV bytes.
func (s *ExportService) AttendanceCSV(ctx context.Context, courseID int64) ([]byte, string, error) {
	grid, err := s.grids.BuildGrid(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(gridDataset(grid))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, fmt.Sprintf("asistencia_curso_%d.csv", courseID), nil
}

// AttendancePDF renders the grid as a printable PDF sheet.
func (s *ExportService) AttendancePDF(ctx context.Context, courseID int64) ([]byte, string, error) {
	grid, err := s.grids.BuildGrid(ctx, courseID)
	if err != nil {
		return nil, "", err
	}
	subtitle := fmt.Sprintf("%s — Hoja de asistencia", grid.CourseName)
	payload, err := s.pdf.Render(gridDataset(grid), s.schoolName, subtitle)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, fmt.Sprintf("asistencia_curso_%d.pdf", courseID), nil
}

// gridDataset flattens the grid into tabular rows: one column for the
// student, one per class date. Unmarked cells stay blank so printed
// sheets can be filled in by hand.
func gridDataset(grid *models.AttendanceGrid) export.Dataset {
	headers := append([]string{studentHeader}, grid.ClassDates...)
	rows := make([]map[string]string, 0, len(grid.Rows))
	for _, gridRow := range grid.Rows {
		row := map[string]string{studentHeader: gridRow.StudentName}
		for _, date := range grid.ClassDates {
			row[date] = cellLabel(gridRow.Cells[date])
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func cellLabel(status models.AttendanceStatus) string {
	switch status {
	case models.AttendanceStatusAttended:
		return "A"
	case models.AttendanceStatusAbsent:
		return "F"
	case models.AttendanceStatusExcused:
		return "J"
	default:
		return ""
	}
}
