package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// exportDocument is what the renderers turn into a file
type exportDocument struct {
	Title         string
	Module        string
	GeneratedAt   time.Time
	Attributes    *models.AnalyticsAttributes
	IncludeCharts bool
}

var contentTypes = map[string]string{
	models.FormatCSV:  "text/csv",
	models.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	models.FormatPDF:  "application/pdf",
	models.FormatJSON: "application/json",
}

// ContentType returns the MIME type served for an export format
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// formatMetricValue renders a value the way its unit reads in a report
func formatMetricValue(value float64, unit string) string {
	d := decimal.NewFromFloat(value)
	switch unit {
	case models.UnitCurrency:
		return d.StringFixed(2)
	case models.UnitPercentage:
		return d.StringFixed(1) + "%"
	case models.UnitCount:
		return d.Round(0).String()
	default:
		return d.StringFixed(2)
	}
}

func formatChange(change *float64) string {
	if change == nil {
		return ""
	}
	return decimal.NewFromFloat(*change).StringFixed(1) + "%"
}

func summaryRows(s models.AnalyticsSummary) [][]string {
	rows := [][]string{
		{"Total Revenue", formatAmount(s.TotalRevenue)},
		{"Total Costs", formatAmount(s.TotalCosts)},
		{"Net Profit", formatAmount(s.NetProfit)},
		{"Profit Margin", formatMetricValue(s.ProfitMargin, models.UnitPercentage)},
		{"ROI", formatMetricValue(s.ROI, models.UnitPercentage)},
	}
	if s.Efficiency != nil {
		rows = append(rows, []string{"Efficiency", formatMetricValue(*s.Efficiency, models.UnitPercentage)})
	}
	if s.Sustainability != nil {
		rows = append(rows, []string{"Sustainability Score", formatMetricValue(*s.Sustainability, models.UnitRatio)})
	}
	return rows
}

func renderExportCSV(doc exportDocument) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	attrs := doc.Attributes

	rows := [][]string{
		{doc.Title, doc.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Period", attrs.Period},
		{},
		{"Metric", "Value", "Unit", "Trend", "Change"},
	}
	for _, m := range attrs.Metrics {
		rows = append(rows, []string{m.Name, formatMetricValue(m.Value, m.Unit), m.Unit, m.Trend, formatChange(m.ChangePercent)})
	}

	rows = append(rows, []string{}, []string{"Summary"})
	rows = append(rows, summaryRows(attrs.Summary)...)

	if doc.IncludeCharts {
		for _, chart := range attrs.Charts {
			rows = append(rows, []string{}, []string{chart.Title, chart.Type}, []string{chart.XAxis, chart.YAxis})
			for _, p := range chart.Data {
				rows = append(rows, []string{p.Label, formatAmount(p.Value)})
			}
		}
	}

	if len(attrs.Insights) > 0 {
		rows = append(rows, []string{}, []string{"Insight", "Impact", "Confidence"})
		for _, in := range attrs.Insights {
			rows = append(rows, []string{in.Description, in.Impact, formatMetricValue(in.Confidence*100, models.UnitPercentage)})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderExportXLSX(doc exportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Metrics"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE8D5"}, Pattern: 1},
	})

	attrs := doc.Attributes
	_ = f.SetCellValue(sheet, "A1", doc.Title)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	_ = f.SetCellValue(sheet, "A2", "Period")
	_ = f.SetCellValue(sheet, "B2", attrs.Period)
	_ = f.SetCellValue(sheet, "A3", "Generated")
	_ = f.SetCellValue(sheet, "B3", doc.GeneratedAt.UTC().Format(time.RFC3339))

	_ = f.SetSheetRow(sheet, "A5", &[]interface{}{"Metric", "Value", "Unit", "Trend", "Change"})
	_ = f.SetCellStyle(sheet, "A5", "E5", headerStyle)
	row := 6
	for _, m := range attrs.Metrics {
		change := ""
		if m.ChangePercent != nil {
			change = formatChange(m.ChangePercent)
		}
		_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]interface{}{m.Name, m.Value, m.Unit, m.Trend, change})
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Summary")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	row++
	for _, r := range summaryRows(attrs.Summary) {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r[1])
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)

	if doc.IncludeCharts && len(attrs.Charts) > 0 {
		chartSheet := "Charts"
		if _, err := f.NewSheet(chartSheet); err != nil {
			return nil, fmt.Errorf("create charts sheet: %w", err)
		}
		r := 1
		for _, chart := range attrs.Charts {
			_ = f.SetCellValue(chartSheet, fmt.Sprintf("A%d", r), chart.Title)
			_ = f.SetCellStyle(chartSheet, fmt.Sprintf("A%d", r), fmt.Sprintf("B%d", r), headerStyle)
			r++
			for _, p := range chart.Data {
				_ = f.SetSheetRow(chartSheet, fmt.Sprintf("A%d", r), &[]interface{}{p.Label, p.Value})
				r++
			}
			r++
		}
	}

	if len(attrs.Insights) > 0 {
		insightSheet := "Insights"
		if _, err := f.NewSheet(insightSheet); err != nil {
			return nil, fmt.Errorf("create insights sheet: %w", err)
		}
		_ = f.SetSheetRow(insightSheet, "A1", &[]interface{}{"Insight", "Impact", "Confidence"})
		_ = f.SetCellStyle(insightSheet, "A1", "C1", headerStyle)
		for i, in := range attrs.Insights {
			_ = f.SetSheetRow(insightSheet, fmt.Sprintf("A%d", i+2), &[]interface{}{in.Description, in.Impact, in.Confidence})
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func renderExportPDF(doc exportDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	attrs := doc.Attributes

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(doc.Title))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s  |  Generated: %s", attrs.Period, doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Metrics")
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 232, 213)
	for _, h := range []struct {
		label string
		width float64
	}{{"Metric", 70}, {"Value", 40}, {"Trend", 30}, {"Change", 30}} {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, m := range attrs.Metrics {
		pdf.CellFormat(70, 6, tr(m.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, formatMetricValue(m.Value, m.Unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, m.Trend, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, formatChange(m.ChangePercent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, r := range summaryRows(attrs.Summary) {
		pdf.Cell(60, 6, r[0]+":")
		pdf.Cell(40, 6, r[1])
		pdf.Ln(6)
	}

	if doc.IncludeCharts {
		for _, chart := range attrs.Charts {
			pdf.Ln(4)
			pdf.SetFont("Arial", "B", 11)
			pdf.Cell(0, 7, tr(chart.Title))
			pdf.Ln(7)
			pdf.SetFont("Arial", "", 9)
			for _, p := range chart.Data {
				pdf.Cell(60, 5, tr(p.Label))
				pdf.Cell(40, 5, formatAmount(p.Value))
				pdf.Ln(5)
			}
		}
	}

	if len(attrs.Insights) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Insights")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, in := range attrs.Insights {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("- %s (%s impact)", in.Description, in.Impact)), "", "L", false)
		}
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderExportJSON(doc exportDocument) ([]byte, error) {
	payload := struct {
		Title       string                      `json:"title"`
		Module      string                      `json:"module"`
		GeneratedAt time.Time                   `json:"generatedAt"`
		Data        *models.AnalyticsAttributes `json:"data"`
	}{doc.Title, doc.Module, doc.GeneratedAt, doc.Attributes}

	if !doc.IncludeCharts {
		trimmed := *doc.Attributes
		trimmed.Charts = []models.AnalyticsChart{}
		payload.Data = &trimmed
	}
	return json.MarshalIndent(payload, "", "  ")
}

func renderExport(format string, doc exportDocument) ([]byte, error) {
	switch format {
	case models.FormatCSV:
		return renderExportCSV(doc)
	case models.FormatXLSX:
		return renderExportXLSX(doc)
	case models.FormatPDF:
		return renderExportPDF(doc)
	case models.FormatJSON:
		return renderExportJSON(doc)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// exportFileName builds analytics_<module>_<date>.<ext>
func exportFileName(prefix, module, format string, at time.Time) string {
	module = strings.ReplaceAll(module, "-", "_")
	return fmt.Sprintf("%s_%s_%s.%s", prefix, module, at.UTC().Format("2006-01-02"), format)
}
