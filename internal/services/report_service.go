package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/reports/*.html
var reportTemplates embed.FS

// Report types
const (
	ReportTypeSummary        = "summary"
	ReportTypeFinancial      = "financial"
	ReportTypeOperational    = "operational"
	ReportTypeSustainability = "sustainability"
	ReportTypeMarket         = "market"
)

// reportModules maps a report type to the analytics module each farm section is built from
var reportModules = map[string]string{
	ReportTypeSummary:        models.ModuleDashboard,
	ReportTypeFinancial:      models.ModuleFinancial,
	ReportTypeOperational:    models.ModuleActivities,
	ReportTypeSustainability: models.ModuleDashboard,
	ReportTypeMarket:         models.ModuleMarket,
}

const reportFanOut = 4

// analyticsComputer is the slice of AnalyticsService that exports and reports read through
type analyticsComputer interface {
	Compute(ctx context.Context, caller models.Caller, module string, q *models.AnalyticsQuery) (*models.AnalyticsResponse, error)
}

// ReportMetric is a formatted metric row
type ReportMetric struct {
	Name  string
	Value string
	Trend string
}

// ReportSection is one farm's block in a report
type ReportSection struct {
	FarmID  string
	Metrics []ReportMetric
	Summary [][]string
	raw     models.AnalyticsSummary
}

// ReportComparison is one row of the cross-farm table
type ReportComparison struct {
	FarmID    string
	Revenue   string
	Costs     string
	NetProfit string
	Margin    string
}

// ReportPrediction holds the projected market metrics for a commodity, or for all commodities
type ReportPrediction struct {
	Commodity string
	Metrics   []ReportMetric
}

// ReportDocument is the rendered-format-independent content of a report
type ReportDocument struct {
	Title       string
	Type        string
	TypeLabel   string
	Period      string
	GeneratedAt string
	Sections    []ReportSection
	Comparisons []ReportComparison
	Predictions []ReportPrediction
}

type ReportService struct {
	analytics analyticsComputer
	renderPDF func(html []byte) ([]byte, error)
	now       func() time.Time
}

func NewReportService(analytics analyticsComputer) *ReportService {
	return &ReportService{
		analytics: analytics,
		renderPDF: htmlToPDF,
		now:       time.Now,
	}
}

// Build computes every farm section concurrently, then the optional comparison and prediction blocks
func (s *ReportService) Build(ctx context.Context, caller models.Caller, req *models.ReportRequest) (*ReportDocument, error) {
	module, ok := reportModules[req.Type]
	if !ok {
		return nil, newValidationError("unknown report type %q", req.Type)
	}
	period := req.Period
	if period == "" {
		period = models.PeriodMonth
	}

	sections := make([]ReportSection, len(req.FarmIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportFanOut)
	for i, farmID := range req.FarmIDs {
		g.Go(func() error {
			farm := farmID
			resp, err := s.analytics.Compute(gctx, caller, module, &models.AnalyticsQuery{
				Period:            period,
				FarmID:            &farm,
				UseCache:          true,
				IncludeEfficiency: req.Type == ReportTypeOperational,
				IncludeCosts:      req.Type == ReportTypeOperational,
			})
			if err != nil {
				return fmt.Errorf("farm %s: %w", farm, err)
			}
			sections[i] = newReportSection(farm, &resp.Data.Attributes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &ReportDocument{
		Title:       req.Title,
		Type:        req.Type,
		TypeLabel:   strings.ToUpper(req.Type[:1]) + req.Type[1:],
		Period:      period,
		GeneratedAt: s.now().UTC().Format("2006-01-02 15:04 MST"),
		Sections:    sections,
	}

	if req.IncludeComparisons {
		for _, sec := range sections {
			doc.Comparisons = append(doc.Comparisons, ReportComparison{
				FarmID:    sec.FarmID,
				Revenue:   formatAmount(sec.raw.TotalRevenue),
				Costs:     formatAmount(sec.raw.TotalCosts),
				NetProfit: formatAmount(sec.raw.NetProfit),
				Margin:    formatMetricValue(sec.raw.ProfitMargin, models.UnitPercentage),
			})
		}
	}

	if req.IncludePredictions {
		predictions, err := s.predictions(ctx, caller, period, req.Commodities)
		if err != nil {
			return nil, err
		}
		doc.Predictions = predictions
	}

	return doc, nil
}

func (s *ReportService) predictions(ctx context.Context, caller models.Caller, period string, commodities []string) ([]ReportPrediction, error) {
	targets := commodities
	if len(targets) == 0 {
		targets = []string{""}
	}

	out := make([]ReportPrediction, 0, len(targets))
	for _, commodity := range targets {
		q := &models.AnalyticsQuery{Period: period, UseCache: true, IncludePredictions: true}
		label := "All commodities"
		if commodity != "" {
			c := commodity
			q.CommodityID = &c
			label = commodity
		}
		resp, err := s.analytics.Compute(ctx, caller, models.ModuleMarket, q)
		if err != nil {
			return nil, fmt.Errorf("market projection %s: %w", label, err)
		}
		out = append(out, ReportPrediction{Commodity: label, Metrics: formatMetrics(resp.Data.Attributes.Metrics)})
	}
	return out, nil
}

func newReportSection(farmID string, attrs *models.AnalyticsAttributes) ReportSection {
	return ReportSection{
		FarmID:  farmID,
		Metrics: formatMetrics(attrs.Metrics),
		Summary: summaryRows(attrs.Summary),
		raw:     attrs.Summary,
	}
}

func formatMetrics(metrics []models.AnalyticsMetric) []ReportMetric {
	out := make([]ReportMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, ReportMetric{Name: m.Name, Value: formatMetricValue(m.Value, m.Unit), Trend: m.Trend})
	}
	return out
}

// Render produces the report file in the requested format
func (s *ReportService) Render(doc *ReportDocument, format string) ([]byte, error) {
	switch format {
	case models.FormatPDF:
		html, err := s.RenderHTML(doc)
		if err != nil {
			return nil, err
		}
		return s.renderPDF(html)
	case models.FormatXLSX:
		return renderReportXLSX(doc)
	case models.FormatCSV:
		return renderReportCSV(doc)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// RenderHTML executes the report template
func (s *ReportService) RenderHTML(doc *ReportDocument) ([]byte, error) {
	tmpl, err := template.ParseFS(reportTemplates, "templates/reports/analytics_report.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// htmlToPDF converts HTML with wkhtmltopdf. The binary must be on PATH or WKHTMLTOPDF_PATH.
func htmlToPDF(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return pdfg.Bytes(), nil
}

func renderReportCSV(doc *ReportDocument) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	rows := [][]string{
		{doc.Title, doc.GeneratedAt},
		{"Type", doc.Type},
		{"Period", doc.Period},
	}
	for _, sec := range doc.Sections {
		rows = append(rows, []string{}, []string{"Farm", sec.FarmID}, []string{"Metric", "Value", "Trend"})
		for _, m := range sec.Metrics {
			rows = append(rows, []string{m.Name, m.Value, m.Trend})
		}
		rows = append(rows, sec.Summary...)
	}
	if len(doc.Comparisons) > 0 {
		rows = append(rows, []string{}, []string{"Farm", "Revenue", "Costs", "Net Profit", "Margin"})
		for _, c := range doc.Comparisons {
			rows = append(rows, []string{c.FarmID, c.Revenue, c.Costs, c.NetProfit, c.Margin})
		}
	}
	if len(doc.Predictions) > 0 {
		rows = append(rows, []string{}, []string{"Commodity", "Metric", "Value", "Trend"})
		for _, p := range doc.Predictions {
			for _, m := range p.Metrics {
				rows = append(rows, []string{p.Commodity, m.Name, m.Value, m.Trend})
			}
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func renderReportXLSX(doc *ReportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE8D5"}, Pattern: 1},
	})

	overview := "Overview"
	_ = f.SetSheetName("Sheet1", overview)
	_ = f.SetSheetRow(overview, "A1", &[]interface{}{doc.Title})
	_ = f.SetSheetRow(overview, "A2", &[]interface{}{"Type", doc.Type})
	_ = f.SetSheetRow(overview, "A3", &[]interface{}{"Period", doc.Period})
	_ = f.SetSheetRow(overview, "A4", &[]interface{}{"Generated", doc.GeneratedAt})

	row := 6
	if len(doc.Comparisons) > 0 {
		_ = f.SetSheetRow(overview, fmt.Sprintf("A%d", row), &[]interface{}{"Farm", "Revenue", "Costs", "Net Profit", "Margin"})
		_ = f.SetCellStyle(overview, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), headerStyle)
		row++
		for _, c := range doc.Comparisons {
			_ = f.SetSheetRow(overview, fmt.Sprintf("A%d", row), &[]interface{}{c.FarmID, c.Revenue, c.Costs, c.NetProfit, c.Margin})
			row++
		}
	}

	for i, sec := range doc.Sections {
		sheet := sheetName(i, sec.FarmID)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet for farm %s: %w", sec.FarmID, err)
		}
		_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"Metric", "Value", "Trend"})
		_ = f.SetCellStyle(sheet, "A1", "C1", headerStyle)
		r := 2
		for _, m := range sec.Metrics {
			_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &[]interface{}{m.Name, m.Value, m.Trend})
			r++
		}
		r++
		for _, s := range sec.Summary {
			_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &[]interface{}{s[0], s[1]})
			r++
		}
		_ = f.SetColWidth(sheet, "A", "A", 28)
	}

	if len(doc.Predictions) > 0 {
		sheet := "Projections"
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create projections sheet: %w", err)
		}
		_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"Commodity", "Metric", "Value", "Trend"})
		_ = f.SetCellStyle(sheet, "A1", "D1", headerStyle)
		r := 2
		for _, p := range doc.Predictions {
			for _, m := range p.Metrics {
				_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &[]interface{}{p.Commodity, m.Name, m.Value, m.Trend})
				r++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetName keeps sheet names unique and inside Excel's 31 character limit
func sheetName(index int, farmID string) string {
	name := fmt.Sprintf("%d %s", index+1, farmID)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// reportFileName builds <slug(title)>_<date>.<ext>
func reportFileName(title, format string, at time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "analytics_report"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "_")
	}
	return fmt.Sprintf("%s_%s.%s", slug, at.UTC().Format("2006-01-02"), format)
}
