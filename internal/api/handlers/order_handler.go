package handlers

import (
	"net/http"
	"strconv"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"
)

type OrderHandler struct {
	repo repository.OrderRepository
	now  func() time.Time
}

func NewOrderHandler(repo repository.OrderRepository) *OrderHandler {
	return &OrderHandler{repo: repo, now: time.Now}
}

type OrderCreateRequest struct {
	UserID    any     `json:"user_id"`
	OrderDate *string `json:"order_date"`
}

type productRemovedResponse struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OrderCreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	userID, err := validation.UserID(req.UserID)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	orderDate, err := validation.OrderDate(req.OrderDate, h.now)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	order := models.Order{
		UserID:    userID,
		OrderDate: orderDate,
	}

	if err := h.repo.Create(r.Context(), &order); err != nil {
		writeRepoError(w, r, err)
		return
	}

	w.Header().Set("Location", "/orders/"+strconv.Itoa(order.ID))
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Order deleted"})
}

func (h *OrderHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	order, added, err := h.repo.AddProduct(r.Context(), orderID, productID)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	if !added {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Product already in order"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	order, err := h.repo.RemoveProduct(r.Context(), orderID, productID)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productRemovedResponse{Message: "Product removed", Order: order})
}

func (h *OrderHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	orders, err := h.repo.GetByUserID(r.Context(), userID)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	products, err := h.repo.GetProducts(r.Context(), orderID)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}
