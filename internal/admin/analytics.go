package admin

import (
	"net/http"
	"strconv"
)

func (s *Server) salesByDate(rw http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days < 1 || days > 365 {
		writeError(rw, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}
	rows, err := s.catalog.SalesByDate(r.Context(), days)
	if err != nil {
		s.logger.Error("sales by date failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, rows)
}

func (s *Server) totalRevenue(rw http.ResponseWriter, r *http.Request) {
	total, err := s.catalog.TotalRevenue(r.Context())
	if err != nil {
		s.logger.Error("total revenue failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]float64{"total_revenue": total})
}

func (s *Server) loyalCustomers(rw http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)
	if limit < 1 || limit > 100 {
		writeError(rw, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	rows, err := s.catalog.LoyalCustomers(r.Context(), limit)
	if err != nil {
		s.logger.Error("loyal customers failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, rows)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
