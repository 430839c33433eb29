package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/de-tools/scan-atlas/pkg/adapters"
	"github.com/de-tools/scan-atlas/pkg/models/api"
	"github.com/de-tools/scan-atlas/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Explorer is the read side of the report directory.
type Explorer interface {
	LatestRecord(ctx context.Context) (domain.RunRecord, error)
	ListReports(ctx context.Context) ([]domain.ReportFile, error)
	ReadReport(ctx context.Context, name string) ([]byte, error)
}

type Handler struct {
	explorer Explorer
}

func NewHandler(explorer Explorer) *Handler {
	return &Handler{explorer: explorer}
}

func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	record, err := h.explorer.LatestRecord(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapDomainRunToAPI(record)); err != nil {
		logger.Error().Err(err).Msg("failed to encode run record")
	}
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	files, err := h.explorer.ListReports(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]api.ReportFile, 0, len(files))
	for _, f := range files {
		response = append(response, adapters.MapDomainReportFileToAPI(f))
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode report list")
	}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	data, err := h.explorer.ReadReport(ctx, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	switch {
	case strings.HasSuffix(name, ".json"):
		w.Header().Set("Content-Type", "application/json")
	case strings.HasSuffix(name, ".md"):
		w.Header().Set("Content-Type", "text/markdown")
	default:
		w.Header().Set("Content-Type", "text/plain")
	}
	_, _ = w.Write(data)
}
