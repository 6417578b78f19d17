package spreadsheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
)

func TestRead_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.csv")
	content := "Description,Barcode,Qty,Price\nNoodles,69-123,2,10.50\nCookies,,1,3.00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(src.Columns) != 4 || src.Columns[0] != "Description" {
		t.Errorf("Columns = %v", src.Columns)
	}
	if len(src.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(src.Records))
	}
	if src.Records[0][3] != "10.50" {
		t.Errorf("Records[0][3] = %q, want %q", src.Records[0][3], "10.50")
	}
}

func TestRead_CSVWithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Description,Qty,Price\nX,1,2\n")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if src.Columns[0] != "Description" {
		t.Errorf("Columns[0] = %q, BOM not stripped", src.Columns[0])
	}
}

func TestRead_CSVGBKEncoded(t *testing.T) {
	utf8Content := "Description,Qty,Price\n牛肉面,2,10\n"
	gbk, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(utf8Content))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "invoice.csv")
	if err := os.WriteFile(path, gbk, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if src.Records[0][0] != "牛肉面" {
		t.Errorf("Records[0][0] = %q, want %q", src.Records[0][0], "牛肉面")
	}
}

func TestRead_CSVRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.csv")
	content := "Description,Qty,Price\nShort\nFull,1,2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v, ragged rows should be tolerated", err)
	}
	if len(src.Records) != 2 {
		t.Errorf("Records = %d, want 2", len(src.Records))
	}
}

func TestRead_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Description", "Barcode", "Qty", "Price"},
		{"Noodles *6", "69-123", 2, 60},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(src.Columns) != 4 {
		t.Fatalf("Columns = %v", src.Columns)
	}
	if len(src.Records) != 1 || src.Records[0][0] != "Noodles *6" {
		t.Errorf("Records = %v", src.Records)
	}
}

func TestRead_UnsupportedExtension(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "invoice.pdf")); err == nil {
		t.Fatal("Read() error = nil for unsupported extension")
	}
}

func TestRead_LegacyXLS(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "invoice.xls"))
	if err == nil {
		t.Fatal("Read() error = nil for .xls")
	}
	if !strings.Contains(err.Error(), ".xlsx") {
		t.Errorf("error = %q, want a hint to convert to .xlsx", err)
	}
}

func TestRead_EmptyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("Read() error = nil for file without header row")
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	table := &pipeline.Table{Rows: []pipeline.Row{
		{
			Description:           "WIDGET *2*3",
			CleanedDescription:    "WIDGET",
			TranslatedDescription: "T:WIDGET",
			Barcode:               "691234",
			Quantity:              1,
			ResolvedQuantity:      6,
			ExtendedPrice:         120.00,
			SinglePrice:           20.00,
		},
	}}

	var buf bytes.Buffer
	if err := Write(table, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}

	got := rows[1]
	want := []string{"WIDGET", "691234", "6", "120", "20", "T:WIDGET"}
	if len(got) != len(want) {
		t.Fatalf("row = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
}
