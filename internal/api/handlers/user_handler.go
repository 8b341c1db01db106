package handlers

import (
	"net/http"
	"strconv"

	"commerce-service/internal/models"
	"commerce-service/internal/repository"
)

type UserHandler struct {
	repo repository.UserRepository
}

func NewUserHandler(repo repository.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

type UserCreateRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Email   string  `json:"email"`
}

type UserUpdateRequest struct {
	Name    optional[string] `json:"name"`
	Address optional[string] `json:"address"`
	Email   optional[string] `json:"email"`
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	u := models.User{
		Name:    req.Name,
		Address: req.Address,
		Email:   req.Email,
	}

	if err := h.repo.Create(r.Context(), &u); err != nil {
		writeRepoError(w, r, err)
		return
	}

	w.Header().Set("Location", "/users/"+strconv.Itoa(u.ID))
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UserUpdateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	var patch models.UserPatch
	if req.Name.Set {
		patch.Name = &req.Name.Value
	}
	if req.Address.Set {
		patch.Address = &req.Address.Value
		patch.ClearAddress = req.Address.Null
	}
	if req.Email.Set {
		patch.Email = &req.Email.Value
	}

	user, err := h.repo.Update(r.Context(), id, patch)
	if err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}
