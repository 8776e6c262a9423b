package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/usecase"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type planCreateRequest struct {
	Name          string `json:"name"`
	Tier          int    `json:"tier"`
	PriceCents    int64  `json:"price_cents"`
	DailyLimit    int    `json:"daily_limit"`
	StripePriceID string `json:"stripe_price_id"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	plan, err := s.planUC.Create(r.Context(), req.Name, model.PlanTier(req.Tier), req.PriceCents, req.DailyLimit, req.StripePriceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name != "" {
		plan.Name = req.Name
	}
	plan.Tier = model.PlanTier(req.Tier)
	plan.PriceCents = req.PriceCents
	plan.DailyLimit = req.DailyLimit
	plan.StripePriceID = req.StripePriceID

	if err := s.planUC.Update(r.Context(), plan); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// product uploads arrive as multipart form data: text fields name and
// plan_id, optional file parts "file" and "image"
const maxUploadSize = 256 << 20

func formUpload(r *http.Request, field string) (*usecase.Upload, func(), error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return &usecase.Upload{Filename: header.Filename, Reader: f}, func() { f.Close() }, nil
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, closeFile, err := formUpload(r, "file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad file part"})
		return
	}
	defer closeFile()
	image, closeImage, err := formUpload(r, "image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad image part"})
		return
	}
	defer closeImage()

	product, err := s.productUC.Create(r.Context(), r.FormValue("name"), r.FormValue("plan_id"), file, image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, closeFile, err := formUpload(r, "file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad file part"})
		return
	}
	defer closeFile()
	image, closeImage, err := formUpload(r, "image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad image part"})
		return
	}
	defer closeImage()

	product, err := s.productUC.Update(r.Context(), chi.URLParam(r, "id"), r.FormValue("name"), r.FormValue("plan_id"), file, image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.productUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
