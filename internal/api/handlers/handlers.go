package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/invoice-normalizer/internal/api/middleware"
	"github.com/dvloznov/invoice-normalizer/internal/artifacts"
	"github.com/dvloznov/invoice-normalizer/internal/jobs"
	"github.com/dvloznov/invoice-normalizer/internal/logger"
	"github.com/dvloznov/invoice-normalizer/internal/progress"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 32 << 20

// InvoicesHandler handles invoice upload, status polling and artifact
// download endpoints. Logging goes through the request-scoped logger the
// middleware put in the context.
type InvoicesHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	tracker   *progress.Tracker
	artifacts artifacts.Store
	uploadDir string
}

// NewInvoicesHandler creates a new invoices handler.
func NewInvoicesHandler(publisher jobs.Publisher, store jobs.JobStore, tracker *progress.Tracker, artifactStore artifacts.Store, uploadDir string) *InvoicesHandler {
	return &InvoicesHandler{
		publisher: publisher,
		store:     store,
		tracker:   tracker,
		artifacts: artifactStore,
		uploadDir: uploadDir,
	}
}

// Upload handles POST /api/invoices.
// It saves the multipart upload, enqueues a normalization job and returns the
// identifiers the caller polls progress with.
func (h *InvoicesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	vendor := strings.TrimSpace(r.FormValue("vendor"))
	if vendor == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Vendor name required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file format %q", ext))
		return
	}

	itemID := uuid.New().String()
	uploadPath := filepath.Join(h.uploadDir, itemID+ext)

	dst, err := os.Create(uploadPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create upload file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	written, err := io.Copy(dst, file)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to write upload file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	job := &jobs.NormalizeInvoiceJob{
		ConsumerID:       vendor,
		ItemID:           itemID,
		UploadPath:       uploadPath,
		OriginalFilename: header.Filename,
	}

	// Seed the progress entry before the job is visible to any worker. A fast
	// worker can post the terminal entry before Publish returns; seeding
	// afterwards would overwrite it with a non-terminal one.
	h.tracker.Update(vendor, itemID, "queued", 0)

	if err := h.publisher.PublishNormalizeInvoice(ctx, job); err != nil {
		// Terminal, so the seeded entry expires instead of lingering forever.
		h.tracker.Fail(vendor, itemID, "could not queue the upload")
		log.Error().Err(err).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("consumer_id", vendor).
		Str("item_id", itemID).
		Int64("bytes", written).
		Msg("Upload accepted")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"consumer_id": vendor,
		"item_id":     itemID,
	})
}

// Status handles GET /api/invoices/status.
// It relays the progress entry for (consumer_id, item_id); a missing entry is
// a 404, distinct from an entry with progress 0.
func (h *InvoicesHandler) Status(w http.ResponseWriter, r *http.Request) {
	consumerID := r.URL.Query().Get("consumer_id")
	itemID := r.URL.Query().Get("item_id")
	if consumerID == "" || itemID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "consumer_id and item_id are required")
		return
	}

	entry, ok := h.tracker.Get(consumerID, itemID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No progress entry for this item")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, entry)
}

// Download handles GET /api/invoices/download.
// It streams the artifact for a reference returned by a completed status
// entry.
func (h *InvoicesHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		middleware.WriteError(w, http.StatusBadRequest, "ref is required")
		return
	}

	rc, err := h.artifacts.Open(r.Context(), ref)
	if err != nil {
		log.Warn().Err(err).Str("ref", ref).Msg("Artifact not found")
		middleware.WriteError(w, http.StatusNotFound, "Artifact not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(ref)))
	if _, err := io.Copy(w, rc); err != nil {
		log.Error().Err(err).Str("ref", ref).Msg("Failed to stream artifact")
	}
}

// ListJobs handles GET /api/jobs.
func (h *InvoicesHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		ConsumerID: r.URL.Query().Get("consumer_id"),
		Status:     jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		lg := logger.FromContext(r.Context())
		lg.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{id}.
func (h *InvoicesHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}
