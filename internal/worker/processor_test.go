package worker

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/invoice-normalizer/internal/artifacts"
	"github.com/dvloznov/invoice-normalizer/internal/jobs"
	"github.com/dvloznov/invoice-normalizer/internal/pipeline"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
	"github.com/dvloznov/invoice-normalizer/internal/translate"
)

func writeUpload(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessor_HandleJob(t *testing.T) {
	dir := t.TempDir()
	store, err := artifacts.NewLocalStore(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatal(err)
	}
	tracker := progress.NewTracker(0)

	upload := writeUpload(t, dir, "item-1.csv",
		"Description,Barcode,Qty,Price\nWIDGET *2*3,69-1234,1,120.00\n")

	p := NewProcessor(translate.Noop{}, pipeline.TranslateOptions{}, tracker, nil, store, nil, zerolog.Nop())

	job := &jobs.NormalizeInvoiceJob{
		JobID:            "job-1",
		ConsumerID:       "acme",
		ItemID:           "item-1",
		UploadPath:       upload,
		OriginalFilename: "spring order.xlsx",
	}

	if err := p.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob() error = %v", err)
	}

	entry, ok := tracker.Get("acme", "item-1")
	if !ok {
		t.Fatal("no tracker entry after completion")
	}
	if !entry.Terminal || entry.Stage != "completed" || entry.Progress != 1.0 {
		t.Errorf("entry = %+v, want terminal completed", entry)
	}
	if entry.ArtifactRef != "acme/acme_spring order.xlsx" {
		t.Errorf("ArtifactRef = %q", entry.ArtifactRef)
	}

	// the artifact is a readable workbook with the normalized values
	rc, err := store.Open(context.Background(), entry.ArtifactRef)
	if err != nil {
		t.Fatalf("Open(artifact) error = %v", err)
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		t.Fatalf("artifact is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("artifact rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "WIDGET" || rows[1][2] != "6" || rows[1][4] != "20" {
		t.Errorf("artifact row = %v", rows[1])
	}

	// the consumed upload is gone
	if _, err := os.Stat(upload); !os.IsNotExist(err) {
		t.Errorf("upload still present after completion: %v", err)
	}
}

func TestProcessor_HandleJob_SchemaFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := artifacts.NewLocalStore(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatal(err)
	}
	tracker := progress.NewTracker(0)

	upload := writeUpload(t, dir, "item-2.csv", "Barcode,Qty,Price\n69,1,2\n")

	p := NewProcessor(translate.Noop{}, pipeline.TranslateOptions{}, tracker, nil, store, nil, zerolog.Nop())

	job := &jobs.NormalizeInvoiceJob{
		JobID:      "job-2",
		ConsumerID: "acme",
		ItemID:     "item-2",
		UploadPath: upload,
	}

	if err := p.HandleJob(context.Background(), job); err == nil {
		t.Fatal("HandleJob() error = nil, want schema failure")
	}

	entry, ok := tracker.Get("acme", "item-2")
	if !ok {
		t.Fatal("no tracker entry after failure")
	}
	if !entry.Terminal || entry.Stage != "failed" || entry.Error == "" {
		t.Errorf("entry = %+v", entry)
	}

	// no partial artifact
	matches, err := filepath.Glob(filepath.Join(dir, "artifacts", "acme", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("partial artifacts written: %v", matches)
	}
}

func TestProcessor_HandleJob_UnreadableUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := artifacts.NewLocalStore(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatal(err)
	}
	tracker := progress.NewTracker(0)

	p := NewProcessor(translate.Noop{}, pipeline.TranslateOptions{}, tracker, nil, store, nil, zerolog.Nop())

	job := &jobs.NormalizeInvoiceJob{
		JobID:      "job-3",
		ConsumerID: "acme",
		ItemID:     "item-3",
		UploadPath: filepath.Join(dir, "missing.csv"),
	}

	if err := p.HandleJob(context.Background(), job); err == nil {
		t.Fatal("HandleJob() error = nil for missing upload")
	}

	entry, ok := tracker.Get("acme", "item-3")
	if !ok {
		t.Fatal("no tracker entry after failure")
	}
	if entry.Error != "could not read the uploaded file" {
		t.Errorf("entry.Error = %q", entry.Error)
	}
}

func TestProcessor_HandleJob_WrongJobType(t *testing.T) {
	p := NewProcessor(translate.Noop{}, pipeline.TranslateOptions{}, progress.NewTracker(0), nil, nopStore{}, nil, zerolog.Nop())

	if err := p.HandleJob(context.Background(), fakeJob{}); err == nil {
		t.Fatal("HandleJob() error = nil for unknown job type")
	}
}

type fakeJob struct{}

func (fakeJob) GetID() string             { return "x" }
func (fakeJob) GetType() jobs.JobType     { return "unknown" }
func (fakeJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

type nopStore struct{}

func (nopStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	return name, nil
}

func (nopStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return nil, os.ErrNotExist
}
