package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
)

type planResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tier          int    `json:"tier"`
	PriceCents    int64  `json:"price_cents"`
	DailyLimit    int    `json:"daily_limit"`
	Purchasable   bool   `json:"purchasable"`
	StripePriceID string `json:"stripe_price_id,omitempty"`
}

func toPlanResponse(p *model.SubscriptionPlan) planResponse {
	return planResponse{
		ID:            p.ID,
		Name:          p.Name,
		Tier:          int(p.Tier),
		PriceCents:    p.PriceCents,
		DailyLimit:    p.DailyLimit,
		Purchasable:   p.Purchasable(),
		StripePriceID: p.StripePriceID,
	}
}

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PlanID    string    `json:"plan_id"`
	ImagePath string    `json:"image_path,omitempty"`
	HasFile   bool      `json:"has_file"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		PlanID:    p.PlanID,
		ImagePath: p.ImagePath,
		HasFile:   p.HasFile(),
		CreatedAt: p.CreatedAt,
	}
}

func (s *Server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.productUC.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	product, err := s.productUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	user, err := s.userUC.GetByID(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	used, err := s.downloadUC.CountTodayByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"is_admin":        user.IsAdmin,
		"registered_at":   user.RegisteredAt,
		"downloads_today": used,
	}
	if user.LastLoginAt != nil {
		resp["last_login_at"] = user.LastLoginAt
	}

	sub, plan, err := s.subUC.GetForUser(r.Context(), user.ID)
	switch {
	case err == nil:
		resp["daily_limit"] = plan.DailyLimit
		resp["subscription"] = map[string]any{
			"plan":     plan.Name,
			"active":   sub.ActiveOn(time.Now()),
			"end_date": sub.EndDate.Format("2006-01-02"),
		}
	case errors.Is(err, domain.ErrNotFound):
		// no subscription row yet; the quota fields stay absent
	default:
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	sub, plan, err := s.subUC.GetForUser(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan":       toPlanResponse(plan),
		"start_date": sub.StartDate.Format("2006-01-02"),
		"end_date":   sub.EndDate.Format("2006-01-02"),
		"active":     sub.ActiveOn(time.Now()),
	})
}

type switchPlanRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleSubscriptionSwitch(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())

	var req switchPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "plan_id is required"})
		return
	}

	sub, err := s.subUC.SwitchPlan(r.Context(), claims.Subject, req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id":    sub.PlanID,
		"start_date": sub.StartDate.Format("2006-01-02"),
		"end_date":   sub.EndDate.Format("2006-01-02"),
	})
}

func (s *Server) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}

	logs, err := s.downloadUC.History(r.Context(), claims.Subject, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type entry struct {
		ID        string    `json:"id"`
		ProductID string    `json:"product_id"`
		Day       string    `json:"day"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]entry, 0, len(logs))
	for _, l := range logs {
		out = append(out, entry{
			ID:        l.ID,
			ProductID: l.ProductID,
			Day:       l.Day.Format("2006-01-02"),
			CreatedAt: l.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "offset": offset})
}
