package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"subscription-storefront/internal/infra/metrics"
)

// handleDownload runs the entitlement check and streams the file. The check
// already recorded the download, so an interrupted stream still counts
// against the daily quota.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	productID := chi.URLParam(r, "id")

	product, err := s.downloadUC.Authorize(r.Context(), claims.Subject, productID)
	if err != nil {
		writeError(w, err)
		return
	}

	f, size, err := s.files.Open(r.Context(), product.FilePath)
	if err != nil {
		s.log.Error().Err(err).Str("product_id", productID).Msg("stored file missing")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "file unavailable"})
		return
	}
	defer f.Close()

	name := product.FileName
	if name == "" {
		name = product.FilePath
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}

	n, err := io.Copy(w, f)
	metrics.AddDownloadBytes(n)
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", productID).Msg("download stream interrupted")
	}
}
