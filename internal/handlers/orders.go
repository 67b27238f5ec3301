package handlers

import (
	"net/http"

	"marketplace/internal/service"
	"marketplace/internal/validation"
	"marketplace/models"
)

// GetOrdersHandler обрабатывает GET /api/orders/
func (h *Handler) GetOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateOrderHandler обрабатывает POST /api/orders/
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.CreateOrderInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.Service.CreateOrder(r.Context(), p, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(order))
}

// GetOrderHandler обрабатывает GET /api/orders/{orderId}/
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.Service.GetOrder(r.Context(), principal(r), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

// UpdateOrderStatusHandler обрабатывает PATCH /api/orders/{orderId}/
func (h *Handler) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := authenticated(w, r)
	if !ok {
		return
	}
	var input service.UpdateOrderInput
	if err := validation.Decode(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.Service.UpdateOrderStatus(r.Context(), p, orderID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order))
}

// DeleteOrderHandler обрабатывает DELETE /api/orders/{orderId}/
func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Service.DeleteOrder(r.Context(), principal(r), orderID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderCountHandler обрабатывает GET /api/order-count/{businessUserId}/
func (h *Handler) OrderCountHandler(w http.ResponseWriter, r *http.Request) {
	h.orderCount(w, r, models.OrderStatusInProgress, "order_count")
}

// CompletedOrderCountHandler обрабатывает GET /api/completed-order-count/{businessUserId}/
func (h *Handler) CompletedOrderCountHandler(w http.ResponseWriter, r *http.Request) {
	h.orderCount(w, r, models.OrderStatusCompleted, "completed_order_count")
}

func (h *Handler) orderCount(w http.ResponseWriter, r *http.Request, status models.OrderStatus, field string) {
	businessUserID, err := pathID(r, "businessUserId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	count, err := h.Service.OrderCount(r.Context(), principal(r), businessUserID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{field: count})
}
