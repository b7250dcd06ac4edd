package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type AccountDTO struct {
	ID        string    `json:"id"`
	BudgetID  string    `json:"budgetId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type AccountHandler struct {
	accountService AccountService
}

func NewAccountHandler(accountService AccountService) *AccountHandler {
	return &AccountHandler{accountService}
}

func (handler *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new account")
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["budgetId"]

	var accountDTO AccountDTO
	if err := json.NewDecoder(r.Body).Decode(&accountDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	accountDTO.BudgetID = budgetID

	created, err := handler.accountService.Create(r.Context(), DTOToAccount(accountDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(AccountToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AccountHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID := mux.Vars(r)["budgetId"]

	accounts, err := handler.accountService.GetAll(r.Context(), budgetID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	accountsDTO := make([]AccountDTO, 0, len(accounts))
	for _, account := range accounts {
		accountsDTO = append(accountsDTO, AccountToDTO(account))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(accountsDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	account, err := handler.accountService.Get(r.Context(), vars["budgetId"], vars["id"])
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(AccountToDTO(account)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var accountDTO AccountDTO
	if err := json.NewDecoder(r.Body).Decode(&accountDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if accountDTO.ID != "" && accountDTO.ID != vars["id"] {
		http.Error(w, "Invalid account id in request body", http.StatusBadRequest)
		return
	}
	accountDTO.ID = vars["id"]
	accountDTO.BudgetID = vars["budgetId"]

	ok, err := handler.accountService.Update(r.Context(), DTOToAccount(accountDTO))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(accountDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	ok, err := handler.accountService.Delete(r.Context(), vars["budgetId"], vars["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func AccountToDTO(account Account) AccountDTO {
	return AccountDTO{
		ID:        account.ID,
		BudgetID:  account.BudgetID,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
	}
}

func DTOToAccount(accountDTO AccountDTO) Account {
	return Account{
		ID:       accountDTO.ID,
		BudgetID: accountDTO.BudgetID,
		Name:     accountDTO.Name,
	}
}
