package handlers

import (
	"net/http"
	"strconv"

	"commerce-service/internal/models"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"
)

type ProductHandler struct {
	repo repository.ProductRepository
}

func NewProductHandler(repo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

// Price is left undecoded so numeric strings can be accepted.
type ProductCreateRequest struct {
	ProductName string `json:"product_name"`
	Price       any    `json:"price"`
}

type ProductUpdateRequest struct {
	ProductName optional[string] `json:"product_name"`
	Price       optional[any]    `json:"price"`
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductCreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	verr := &validation.Error{}
	p := models.Product{ProductName: req.ProductName}

	if req.Price == nil {
		verr.Add("price", validation.MsgPriceRequired)
	} else if price, err := validation.Price(req.Price); err != nil {
		if err := verr.Merge(err); err != nil {
			writeRepoError(w, r, err)
			return
		}
	} else {
		p.Price = price
	}

	if err := verr.Merge(validation.Struct(p)); err != nil {
		writeRepoError(w, r, err)
		return
	}
	if len(verr.Fields) > 0 {
		writeRepoError(w, r, verr)
		return
	}

	if err := h.repo.Create(r.Context(), &p); err != nil {
		writeRepoError(w, r, err)
		return
	}

	w.Header().Set("Location", "/products/"+strconv.Itoa(p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ProductUpdateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	var patch models.ProductPatch
	if req.ProductName.Set {
		patch.ProductName = &req.ProductName.Value
	}
	if req.Price.Set {
		price, err := validation.Price(req.Price.Value)
		if err != nil {
			writeRepoError(w, r, err)
			return
		}
		patch.Price = &price
	}

	product, err := h.repo.Update(r.Context(), id, patch)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted"})
}
