package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// ExportService renders station quality history as Excel, CSV and PDF
type ExportService struct{}

// NewExportService creates a new export service instance
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportData represents data to be exported. Lists are newest first.
type ExportData struct {
	StationID    int64
	Observations []models.Observation
	Forecasts    []models.Forecast
	GeneratedAt  time.Time
}

// Summary aggregates observation history
type Summary struct {
	Count        int
	AverageScore float64
	MinScore     float64
	MaxScore     float64
	ByStatus     map[models.QualityStatus]int
	From, To     time.Time
}

// Summarize computes aggregate statistics over observations
func Summarize(observations []models.Observation) Summary {
	s := Summary{ByStatus: map[models.QualityStatus]int{}}
	if len(observations) == 0 {
		return s
	}

	s.Count = len(observations)
	s.MinScore = observations[0].Score
	s.MaxScore = observations[0].Score
	s.From = observations[0].Timestamp
	s.To = observations[0].Timestamp

	var sum float64
	for _, obs := range observations {
		sum += obs.Score
		s.ByStatus[obs.Status]++
		if obs.Score < s.MinScore {
			s.MinScore = obs.Score
		}
		if obs.Score > s.MaxScore {
			s.MaxScore = obs.Score
		}
		if obs.Timestamp.Before(s.From) {
			s.From = obs.Timestamp
		}
		if obs.Timestamp.After(s.To) {
			s.To = obs.Timestamp
		}
	}
	s.AverageScore = sum / float64(s.Count)
	return s
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
}

// GenerateExcel creates a workbook with Summary, Observations and Forecasts sheets
func (es *ExportService) GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Category:       "AquaWatch Water Quality",
		Created:        data.GeneratedAt.Format(time.RFC3339),
		Creator:        "AquaWatch Backend",
		Description:    "Water quality index history export",
		LastModifiedBy: "AquaWatch Backend",
		Subject:        "Water Quality History",
		Title:          fmt.Sprintf("AquaWatch Station %d Report", data.StationID),
		Version:        "1.0",
	})

	if err := es.createSummarySheet(f, data); err != nil {
		return nil, err
	}
	if err := es.createObservationsSheet(f, data.Observations); err != nil {
		return nil, err
	}
	if err := es.createForecastsSheet(f, data.Forecasts); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (es *ExportService) createSummarySheet(f *excelize.File, data ExportData) error {
	sheetName := "Summary"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "AquaWatch Water Quality Report")
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "D1", titleStyle)
	f.SetRowHeight(sheetName, 1, 25)

	summary := Summarize(data.Observations)
	rows := [][]interface{}{
		{"Station:", data.StationID},
		{"Generated At:", data.GeneratedAt.Format(timeLayout)},
		{"Observations:", summary.Count},
		{"Average Score:", round2(summary.AverageScore)},
		{"Min Score:", summary.MinScore},
		{"Max Score:", summary.MaxScore},
		{"GOOD:", summary.ByStatus[models.StatusGood]},
		{"MODERATE:", summary.ByStatus[models.StatusModerate]},
		{"BAD:", summary.ByStatus[models.StatusBad]},
		{"Forecasts:", len(data.Forecasts)},
	}
	if summary.Count > 0 {
		rows = append(rows, []interface{}{"Date Range:", fmt.Sprintf("%s - %s", summary.From.Format(timeLayout), summary.To.Format(timeLayout))})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "D", 22)
	return nil
}

func (es *ExportService) createObservationsSheet(f *excelize.File, observations []models.Observation) error {
	sheetName := "Observations"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []interface{}{"Timestamp", "Score", "Status", "Details"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	style, err := headerStyle(f, "70AD47")
	if err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "A1", "D1", style)

	for i, obs := range observations {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), obs.Timestamp.Format(timeLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), obs.Score)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(obs.Status))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), obs.Details)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 80)
	return nil
}

func (es *ExportService) createForecastsSheet(f *excelize.File, forecasts []models.Forecast) error {
	sheetName := "Forecasts"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []interface{}{"Created At", "Forecast Time", "Horizon (h)", "Predicted Score", "Predicted Status", "Model", "Confidence"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	style, err := headerStyle(f, "7030A0")
	if err != nil {
		return err
	}
	f.SetCellStyle(sheetName, "A1", "G1", style)

	for i, fc := range forecasts {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fc.CreatedAt.Format(timeLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fc.ForecastTime.Format(timeLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), fc.HorizonHours)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), fc.PredictedScore)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(fc.PredictedStatus))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), fc.ModelName+" "+fc.ModelVersion)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), fc.Confidence)
	}

	f.SetColWidth(sheetName, "A", "B", 20)
	f.SetColWidth(sheetName, "C", "E", 15)
	f.SetColWidth(sheetName, "F", "F", 28)
	return nil
}

// GenerateCSV creates CSV records for observations
func (es *ExportService) GenerateCSV(observations []models.Observation) [][]string {
	records := [][]string{
		{"Timestamp", "Station", "Score", "Status", "Details"},
	}

	for _, obs := range observations {
		records = append(records, []string{
			obs.Timestamp.Format(time.RFC3339),
			strconv.FormatInt(obs.StationID, 10),
			strconv.FormatFloat(obs.Score, 'f', 2, 64),
			string(obs.Status),
			obs.Details,
		})
	}

	return records
}

// WriteCSV writes CSV data to w
func (es *ExportService) WriteCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// GeneratePDF renders a one-page station report
func (es *ExportService) GeneratePDF(data ExportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Water Quality Report - Station %d", data.StationID))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", data.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)

	summary := Summarize(data.Observations)
	pdf.Cell(0, 6, fmt.Sprintf("Observations: %d, average score %.2f (min %.2f, max %.2f)",
		summary.Count, summary.AverageScore, summary.MinScore, summary.MaxScore))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("GOOD %d / MODERATE %d / BAD %d",
		summary.ByStatus[models.StatusGood], summary.ByStatus[models.StatusModerate], summary.ByStatus[models.StatusBad]))
	pdf.Ln(8)

	if len(data.Observations) > 0 {
		latest := data.Observations[0]
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, fmt.Sprintf("Latest: %.2f %s at %s", latest.Score, latest.Status, latest.Timestamp.Format(timeLayout)))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(latest.Details), "", "L", false)
		pdf.Ln(4)
	}

	if len(data.Forecasts) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, "Forecast Time", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Horizon (h)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Score", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, "Model", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, fc := range data.Forecasts {
			pdf.CellFormat(45, 6, fc.ForecastTime.Format(timeLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, strconv.Itoa(fc.HorizonHours), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", fc.PredictedScore), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, string(fc.PredictedStatus), "1", 0, "C", false, 0, "")
			pdf.CellFormat(55, 6, fc.ModelName, "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(data.Observations) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, "Timestamp", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Score", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, obs := range data.Observations {
			pdf.CellFormat(50, 6, obs.Timestamp.Format(timeLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", obs.Score), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, string(obs.Status), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
