package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

func (handler *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new budget")
	w.Header().Set("Content-Type", "application/json")

	var budgetDTO BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&budgetDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createdBudget, err := handler.budgetService.Create(r.Context(), DTOToBudget(budgetDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(BudgetToDTO(createdBudget)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["id"]

	budget, err := handler.budgetService.Get(r.Context(), budgetID)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			http.Error(w, "Budget not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(BudgetToDTO(budget)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	budgets, err := handler.budgetService.GetAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	budgetsDTO := make([]BudgetDTO, 0, len(budgets))
	for _, budget := range budgets {
		budgetsDTO = append(budgetsDTO, BudgetToDTO(budget))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(budgetsDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["id"]

	var budgetDTO BudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&budgetDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if budgetDTO.ID != "" && budgetDTO.ID != budgetID {
		http.Error(w, "Invalid budget id in request body", http.StatusBadRequest)
		return
	}
	budgetDTO.ID = budgetID

	ok, err := handler.budgetService.Update(r.Context(), DTOToBudget(budgetDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(budgetDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["id"]

	ok, err := handler.budgetService.Delete(r.Context(), budgetID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Budget not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func BudgetToDTO(budget Budget) BudgetDTO {
	return BudgetDTO{
		ID:        budget.ID,
		Name:      budget.Name,
		CreatedAt: budget.CreatedAt,
	}
}

func DTOToBudget(budgetDTO BudgetDTO) Budget {
	return Budget{
		ID:   budgetDTO.ID,
		Name: budgetDTO.Name,
	}
}
