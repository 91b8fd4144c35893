package admin

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shopbot/internal/domain"
	"shopbot/internal/store"
)

func (s *Server) listOrders(rw http.ResponseWriter, r *http.Request) {
	orders, err := s.catalog.ListOrders(r.Context())
	if err != nil {
		s.logger.Error("list orders failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(rw, http.StatusOK, orders)
}

type statusUpdate struct {
	Status domain.OrderStatus `json:"status"`
}

func (s *Server) updateOrderStatus(rw http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var upd statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !domain.ValidStatus(upd.Status) {
		writeError(rw, http.StatusBadRequest, fmt.Sprintf("unknown status %q", upd.Status))
		return
	}

	if err := s.catalog.SetOrderStatus(r.Context(), number, upd.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(rw, http.StatusNotFound, "order not found")
			return
		}
		s.logger.Error("update order status failed", "order", number, "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}

	o, err := s.catalog.GetOrder(r.Context(), number)
	if err != nil {
		s.logger.Error("reload order failed", "order", number, "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}

	evtType := domain.OrderStatusChanged
	if upd.Status == domain.StatusCancelled {
		evtType = domain.OrderCancelled
	}
	s.bus.Publish(domain.OrderEvent{Type: evtType, Order: *o, SessionID: o.SessionID})

	writeJSON(rw, http.StatusOK, o)
}

func (s *Server) exportOrders(rw http.ResponseWriter, r *http.Request) {
	orders, err := s.catalog.ListOrders(r.Context())
	if err != nil {
		s.logger.Error("export orders failed", "err", err)
		writeError(rw, http.StatusInternalServerError, "internal error")
		return
	}

	filename := "orders-" + time.Now().Format("2006-01-02") + ".csv"
	rw.Header().Set("Content-Type", "text/csv")
	rw.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	w := csv.NewWriter(rw)
	w.Write([]string{"number", "session_id", "status", "total", "items", "placed_at"})
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		w.Write([]string{
			o.Number,
			o.SessionID,
			string(o.Status),
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			strconv.Itoa(items),
			o.PlacedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("writing CSV failed", "err", err)
	}
}
