package category

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type CategoryDTO struct {
	ID        string    `json:"id"`
	BudgetID  string    `json:"budgetId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type CategoryHandler struct {
	categoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService}
}

func (handler *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new category")
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["budgetId"]

	var categoryDTO CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&categoryDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	categoryDTO.BudgetID = budgetID

	created, err := handler.categoryService.Create(r.Context(), DTOToCategory(categoryDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CategoryToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["budgetId"]

	categories, err := handler.categoryService.GetAll(r.Context(), budgetID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	categoriesDTO := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		categoriesDTO = append(categoriesDTO, CategoryToDTO(category))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(categoriesDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	category, err := handler.categoryService.Get(r.Context(), vars["budgetId"], vars["id"])
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CategoryToDTO(category)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var categoryDTO CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&categoryDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if categoryDTO.ID != "" && categoryDTO.ID != vars["id"] {
		http.Error(w, "Invalid category id in request body", http.StatusBadRequest)
		return
	}
	categoryDTO.ID = vars["id"]
	categoryDTO.BudgetID = vars["budgetId"]

	ok, err := handler.categoryService.Update(r.Context(), DTOToCategory(categoryDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(categoryDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	ok, err := handler.categoryService.Delete(r.Context(), vars["budgetId"], vars["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func CategoryToDTO(category Category) CategoryDTO {
	return CategoryDTO{
		ID:        category.ID,
		BudgetID:  category.BudgetID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}
}

func DTOToCategory(categoryDTO CategoryDTO) Category {
	return Category{
		ID:       categoryDTO.ID,
		BudgetID: categoryDTO.BudgetID,
		Name:     categoryDTO.Name,
	}
}
