package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Spok95/catalog-agent/internal/export"
	"github.com/Spok95/catalog-agent/internal/gateway"
)

type Lister interface {
	List(ctx context.Context, kind gateway.Kind) ([]gateway.Record, error)
}

// ExportHandler отдаёт коллекцию ресурсов Excel-файлом: GET /export/{kind}.
type ExportHandler struct {
	lister Lister
	log    *slog.Logger
}

func NewExportHandler(l Lister, log *slog.Logger) *ExportHandler {
	return &ExportHandler{lister: l, log: log}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind, ok := gateway.ParseKind(r.PathValue("kind"))
	if !ok {
		http.Error(w, "unknown resource kind", http.StatusNotFound)
		return
	}

	recs, err := h.lister.List(r.Context(), kind)
	if err != nil {
		h.log.Error("export list failed", "kind", kind, "err", err)
		http.Error(w, "failed to load records", http.StatusBadGateway)
		return
	}

	data, err := export.Workbook(kind, recs)
	if err != nil {
		h.log.Error("export build failed", "kind", kind, "err", err)
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.FileName(kind)))
	_, _ = w.Write(data)
}
