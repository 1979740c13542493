// Package excel bulk-imports problems from spreadsheets
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/algorecall/internal/tracker"
	"github.com/example/algorecall/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ProblemAdder stores one problem for a user
type ProblemAdder interface {
	AddProblem(ctx context.Context, userID int64, topic, name, link string) (*models.Problem, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	TopicColumn string // Column with the topic
	NameColumn  string // Column with the problem name
	LinkColumn  string // Column with the problem link
	SheetName   string // Sheet to import, the first sheet when empty
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TopicColumn: "A",
		NameColumn:  "B",
		LinkColumn:  "C",
		StartRow:    2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Importer adds spreadsheet rows to a user's problem collection
type Importer struct {
	adder  ProblemAdder
	config ImportConfig
}

// NewImporter creates an importer using the default column layout
func NewImporter(adder ProblemAdder) *Importer {
	return &Importer{adder: adder, config: DefaultImportConfig()}
}

// WithConfig returns a copy of the importer using config
func (im *Importer) WithConfig(config ImportConfig) *Importer {
	return &Importer{adder: im.adder, config: config}
}

// ImportFile imports problems from an .xlsx or .csv file
func (im *Importer) ImportFile(ctx context.Context, userID int64, path string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return im.ImportReader(ctx, userID, file, filepath.Ext(path))
}

// ImportReader imports problems from r. ext selects the format (".csv" or ".xlsx").
func (im *Importer) ImportReader(ctx context.Context, userID int64, r io.Reader, ext string) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(r, im.config.SheetName)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return im.importRows(ctx, userID, rows)
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

func (im *Importer) importRows(ctx context.Context, userID int64, rows [][]string) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	currentTopic := ""

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < im.config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		topic := cell(row, im.config.TopicColumn)
		name := cell(row, im.config.NameColumn)
		link := cell(row, im.config.LinkColumn)

		switch {
		case topic == "" && name == "" && link == "":
			continue
		case name == "" && link == "":
			// a lone topic cell starts a group of rows
			currentTopic = topic
			continue
		case topic == "":
			topic = currentTopic
		}

		result.TotalProcessed++
		_, err := im.adder.AddProblem(ctx, userID, topic, name, link)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, tracker.ErrDuplicate):
			result.Skipped++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// columnToIndex converts an Excel column letter to a 0-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
