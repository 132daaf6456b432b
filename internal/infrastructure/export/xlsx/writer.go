package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

const (
	sheetName   = "Metrics"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteMetrics renders aggregated metrics as a three-column workbook (industry,
// metric, value): a header row, then one row per metric in aggregation order.
func WriteMetrics(w io.Writer, selection domain.IndustrySelection, metrics []domain.AggregatedMetric) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &[]any{"industry", "metric", "value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, metric := range metrics {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{selection.String(), metric.Name, metric.Value}); err != nil {
			return fmt.Errorf("write metric %q: %w", metric.Name, err)
		}
	}
	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
