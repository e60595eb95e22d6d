package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/broker-workflow/internal/application/port"
	"github.com/garyjia/broker-workflow/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetName = "Audit Log"

	// XLSXContentType is the MIME type of the generated workbook
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []interface{}{
	"ID", "Timestamp", "Resource Type", "Resource ID", "Action",
	"Severity", "Actor", "Old Values", "New Values",
}

// column widths for A..I
var columnWidths = []float64{8, 22, 14, 12, 18, 10, 18, 40, 40}

// ExcelExporter writes audit logs to a single-sheet XLSX workbook
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Export writes logs as rows beneath a bold, frozen header
func (e *ExcelExporter) Export(ctx context.Context, logs []*entity.AuditLog, w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := e.writeHeader(file); err != nil {
		return err
	}

	for i, log := range logs {
		if err := ctx.Err(); err != nil {
			return err
		}

		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{
			log.ID,
			log.Timestamp.UTC().Format(time.RFC3339),
			log.ResourceType,
			log.ResourceID,
			log.Action,
			log.Severity,
			log.Actor,
			encodeValues(log.OldValues),
			encodeValues(log.NewValues),
		}
		if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Audit workbook written", zap.Int("rows", len(logs)))
	return nil
}

func (e *ExcelExporter) writeHeader(file *excelize.File) error {
	if err := file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := file.SetCellStyle(sheetName, "A1", "I1", style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return file.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// ContentType returns the XLSX MIME type
func (e *ExcelExporter) ContentType() string {
	return XLSXContentType
}

// FileExtension returns ".xlsx"
func (e *ExcelExporter) FileExtension() string {
	return ".xlsx"
}

func encodeValues(values map[string]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Sprint(values)
	}
	return string(b)
}

var _ port.AuditExporter = (*ExcelExporter)(nil)
