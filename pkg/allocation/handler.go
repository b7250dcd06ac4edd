package allocation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/months"
	log "github.com/sirupsen/logrus"
)

type AllocationDTO struct {
	CategoryID string  `json:"categoryId,omitempty"`
	Amount     float64 `json:"amount"`
}

type AllocationsDTO struct {
	Allocations []AllocationDTO `json:"allocations"`
}

// MonthStatusDTO is the month snapshot together with its allocation lifecycle
// state.
type MonthStatusDTO struct {
	months.MonthDTO
	Status Status `json:"allocationStatus"`
}

type AllocationHandler struct {
	service Service
}

func NewAllocationHandler(service Service) *AllocationHandler {
	return &AllocationHandler{service}
}

func allocationPath(r *http.Request) (budgetID string, year, month int, err error) {
	vars := mux.Vars(r)
	budgetID = vars["budgetId"]
	year, err = strconv.Atoi(vars["year"])
	if err != nil {
		return "", 0, 0, err
	}
	month, err = strconv.Atoi(vars["month"])
	if err != nil {
		return "", 0, 0, err
	}
	return budgetID, year, month, nil
}

func (handler *AllocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := allocationPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, status, err := handler.service.Get(r.Context(), budgetID, year, month)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeMonthStatus(w, http.StatusOK, m, status, nil)
}

func (handler *AllocationHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := allocationPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	allocations, err := decodeAllocations(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.SaveDraft(r.Context(), budgetID, year, month, allocations)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeMonthStatus(w, http.StatusOK, m, StatusOf(m), nil)
}

func (handler *AllocationHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := allocationPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	allocations, err := decodeAllocations(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.Finalize(r.Context(), budgetID, year, month, allocations)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonthStatus(w, http.StatusOK, m, StatusOf(m), recalcErr)
		return
	}
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeMonthStatus(w, http.StatusOK, m, StatusOf(m), nil)
}

func (handler *AllocationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := allocationPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.DeleteAll(r.Context(), budgetID, year, month)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonthStatus(w, http.StatusOK, m, StatusOf(m), recalcErr)
		return
	}
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeMonthStatus(w, http.StatusOK, m, StatusOf(m), nil)
}

func decodeAllocations(r *http.Request) (map[ledger.CategoryRef]float64, error) {
	var allocationsDTO AllocationsDTO
	if err := json.NewDecoder(r.Body).Decode(&allocationsDTO); err != nil {
		return nil, err
	}
	allocations := make(map[ledger.CategoryRef]float64, len(allocationsDTO.Allocations))
	for _, a := range allocationsDTO.Allocations {
		allocations[ledger.CategoryOf(a.CategoryID)] = a.Amount
	}
	return allocations, nil
}

func writeMonthStatus(w http.ResponseWriter, status int, m ledger.MonthlyLedger, allocationStatus Status, recalcErr *cascade.RecalcError) {
	monthStatusDTO := MonthStatusDTO{
		MonthDTO: months.MonthToDTO(m),
		Status:   allocationStatus,
	}
	if recalcErr != nil {
		monthStatusDTO.Warning = recalcErr.Error()
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(monthStatusDTO); err != nil {
		log.Errorf("failed to encode allocation response: %v", err)
	}
}

func writeAllocationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrMonthNotFound):
		http.Error(w, "Ledger month not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
