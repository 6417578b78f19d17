// Package spreadsheet reads vendor invoice files into the tabular structure
// the pipeline consumes, and writes normalized tables back out as xlsx. It is
// the only place that touches file bytes.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
)

// Read decodes an .xlsx or .csv file into a source table. The first row is
// the header; everything below is data. CSV bytes are converted to UTF-8
// first, tolerating the usual mix of vendor encodings.
func Read(path string) (pipeline.SourceTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return readExcel(path)
	case ".csv":
		return readCSV(path)
	case ".xls":
		return pipeline.SourceTable{}, fmt.Errorf("legacy .xls is not supported, save the file as .xlsx first")
	default:
		return pipeline.SourceTable{}, fmt.Errorf("unsupported file format %q", ext)
	}
}

func readExcel(path string) (pipeline.SourceTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return pipeline.SourceTable{}, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return pipeline.SourceTable{}, fmt.Errorf("no sheets found in excel file")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return pipeline.SourceTable{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return tableFromRows(rows)
}

func readCSV(path string) (pipeline.SourceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.SourceTable{}, fmt.Errorf("read csv file: %w", err)
	}

	decoded, err := decodeToUTF8(data)
	if err != nil {
		return pipeline.SourceTable{}, fmt.Errorf("decode csv file: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1 // vendor files are often ragged
	records, err := r.ReadAll()
	if err != nil {
		return pipeline.SourceTable{}, fmt.Errorf("parse csv: %w", err)
	}

	return tableFromRows(records)
}

func tableFromRows(rows [][]string) (pipeline.SourceTable, error) {
	if len(rows) == 0 {
		return pipeline.SourceTable{}, fmt.Errorf("file has no header row")
	}
	return pipeline.SourceTable{
		Columns: rows[0],
		Records: rows[1:],
	}, nil
}
