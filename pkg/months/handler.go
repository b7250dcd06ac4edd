package months

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/sequence"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	AccountID     string  `json:"accountId,omitempty"`
	FromAccountID string  `json:"fromAccountId,omitempty"`
	ToAccountID   string  `json:"toAccountId,omitempty"`
	CategoryID    string  `json:"categoryId,omitempty"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
	Cleared       bool    `json:"cleared"`
	Payee         string  `json:"payee,omitempty"`
	Description   string  `json:"description,omitempty"`
}

type CategoryBalanceDTO struct {
	CategoryID   string  `json:"categoryId,omitempty"`
	StartBalance float64 `json:"startBalance"`
	Allocated    float64 `json:"allocated"`
	Spent        float64 `json:"spent"`
	EndBalance   float64 `json:"endBalance"`
}

type AccountBalanceDTO struct {
	AccountID    string  `json:"accountId"`
	StartBalance float64 `json:"startBalance"`
	Income       float64 `json:"income"`
	Expenses     float64 `json:"expenses"`
	NetChange    float64 `json:"netChange"`
	EndBalance   float64 `json:"endBalance"`
}

type MonthDTO struct {
	BudgetID             string               `json:"budgetId"`
	Year                 int                  `json:"year"`
	Month                int                  `json:"month"`
	Entries              []EntryDTO           `json:"entries"`
	CategoryBalances     []CategoryBalanceDTO `json:"categoryBalances"`
	AccountBalances      []AccountBalanceDTO  `json:"accountBalances"`
	TotalIncome          float64              `json:"totalIncome"`
	TotalExpenses        float64              `json:"totalExpenses"`
	AllocationsFinalized bool                 `json:"allocationsFinalized"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	// Warning is set when the month was stored but the follow-up
	// recalculation of later months failed.
	Warning string `json:"warning,omitempty"`
}

type ClearedBalanceDTO struct {
	AccountID string  `json:"accountId"`
	Cleared   float64 `json:"cleared"`
	Uncleared float64 `json:"uncleared"`
}

type MonthHandler struct {
	service Service
}

func NewMonthHandler(service Service) *MonthHandler {
	return &MonthHandler{service}
}

func monthPath(r *http.Request) (budgetID string, year, month int, err error) {
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

func (handler *MonthHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.Get(r.Context(), budgetID, year, month)
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusOK, m, nil)
}

func (handler *MonthHandler) Create(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.Create(r.Context(), budgetID, year, month)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonth(w, http.StatusCreated, m, recalcErr)
		return
	}
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusCreated, m, nil)
}

func (handler *MonthHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var entryDTO EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entryDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input, err := DTOToEntryInput(entryDTO)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.AddEntry(r.Context(), budgetID, year, month, input)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonth(w, http.StatusCreated, m, recalcErr)
		return
	}
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusCreated, m, nil)
}

func (handler *MonthHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entryID := mux.Vars(r)["entryId"]

	var entryDTO EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entryDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entryDTO.ID != "" && entryDTO.ID != entryID {
		http.Error(w, "Entry id in request body does not match the path", http.StatusBadRequest)
		return
	}
	input, err := DTOToEntryInput(entryDTO)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := handler.service.UpdateEntry(r.Context(), budgetID, year, month, entryID, input)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonth(w, http.StatusOK, m, recalcErr)
		return
	}
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusOK, m, nil)
}

func (handler *MonthHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entryID := mux.Vars(r)["entryId"]

	m, err := handler.service.DeleteEntry(r.Context(), budgetID, year, month, entryID)
	var recalcErr *cascade.RecalcError
	if errors.As(err, &recalcErr) {
		writeMonth(w, http.StatusOK, m, recalcErr)
		return
	}
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusOK, m, nil)
}

func (handler *MonthHandler) ClearedBalances(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	balances, err := handler.service.ClearedBalances(r.Context(), budgetID, year, month)
	if err != nil {
		writeMonthError(w, err)
		return
	}

	balancesDTO := make([]ClearedBalanceDTO, 0, len(balances))
	for _, b := range balances {
		balancesDTO = append(balancesDTO, ClearedBalanceDTO{
			AccountID: b.AccountID,
			Cleared:   b.Cleared,
			Uncleared: b.Uncleared,
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(balancesDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *MonthHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	budgetID, year, month, err := monthPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.Recalculate(r.Context(), budgetID, year, month); err != nil {
		writeMonthError(w, err)
		return
	}

	m, err := handler.service.Get(r.Context(), budgetID, year, month)
	if err != nil {
		writeMonthError(w, err)
		return
	}
	writeMonth(w, http.StatusOK, m, nil)
}

func writeMonth(w http.ResponseWriter, status int, m ledger.MonthlyLedger, recalcErr *cascade.RecalcError) {
	monthDTO := MonthToDTO(m)
	if recalcErr != nil {
		monthDTO.Warning = recalcErr.Error()
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(monthDTO); err != nil {
		log.Errorf("failed to encode month response: %v", err)
	}
}

func writeMonthError(w http.ResponseWriter, err error) {
	var violation *sequence.Violation
	switch {
	case errors.Is(err, ledger.ErrMonthNotFound):
		http.Error(w, "Ledger month not found", http.StatusNotFound)
	case errors.Is(err, ErrEntryNotFound):
		http.Error(w, "Ledger entry not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidEntry):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &violation):
		if violation.Kind == sequence.ViolationInvalidMonth {
			http.Error(w, violation.Message, http.StatusBadRequest)
			return
		}
		http.Error(w, violation.Message, http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func MonthToDTO(m ledger.MonthlyLedger) MonthDTO {
	entries := make([]EntryDTO, 0, len(m.Income)+len(m.Expenses)+len(m.Transfers)+len(m.Adjustments))
	for _, e := range m.Income {
		entries = append(entries, EntryDTO{
			ID:          e.ID,
			Kind:        string(EntryKindIncome),
			AccountID:   e.AccountID,
			Amount:      e.Amount,
			Date:        e.Date.Format("2006-01-02"),
			Cleared:     true,
			Payee:       e.Payee,
			Description: e.Description,
		})
	}
	for _, e := range m.Expenses {
		entries = append(entries, EntryDTO{
			ID:          e.ID,
			Kind:        string(EntryKindExpense),
			AccountID:   e.AccountID,
			CategoryID:  categoryID(e.Category),
			Amount:      e.Amount,
			Date:        e.Date.Format("2006-01-02"),
			Cleared:     e.Cleared,
			Payee:       e.Payee,
			Description: e.Description,
		})
	}
	for _, e := range m.Transfers {
		entries = append(entries, EntryDTO{
			ID:            e.ID,
			Kind:          string(EntryKindTransfer),
			FromAccountID: e.FromAccountID,
			ToAccountID:   e.ToAccountID,
			Amount:        e.Amount,
			Date:          e.Date.Format("2006-01-02"),
			Cleared:       e.Cleared,
			Description:   e.Description,
		})
	}
	for _, e := range m.Adjustments {
		entries = append(entries, EntryDTO{
			ID:          e.ID,
			Kind:        string(EntryKindAdjustment),
			AccountID:   e.AccountID,
			CategoryID:  categoryID(e.Category),
			Amount:      e.Amount,
			Date:        e.Date.Format("2006-01-02"),
			Cleared:     e.Cleared,
			Description: e.Description,
		})
	}

	categoryBalances := make([]CategoryBalanceDTO, 0, len(m.CategoryBalances))
	for _, b := range m.CategoryBalances {
		categoryBalances = append(categoryBalances, CategoryBalanceDTO{
			CategoryID:   categoryID(b.Category),
			StartBalance: b.StartBalance,
			Allocated:    b.Allocated,
			Spent:        b.Spent,
			EndBalance:   b.EndBalance,
		})
	}
	accountBalances := make([]AccountBalanceDTO, 0, len(m.AccountBalances))
	for _, b := range m.AccountBalances {
		accountBalances = append(accountBalances, AccountBalanceDTO{
			AccountID:    b.AccountID,
			StartBalance: b.StartBalance,
			Income:       b.Income,
			Expenses:     b.Expenses,
			NetChange:    b.NetChange,
			EndBalance:   b.EndBalance,
		})
	}

	return MonthDTO{
		BudgetID:             m.BudgetID,
		Year:                 m.Year,
		Month:                m.Month,
		Entries:              entries,
		CategoryBalances:     categoryBalances,
		AccountBalances:      accountBalances,
		TotalIncome:          m.TotalIncome,
		TotalExpenses:        m.TotalExpenses,
		AllocationsFinalized: m.AllocationsFinalized,
		UpdatedAt:            m.UpdatedAt,
	}
}

func DTOToEntryInput(entryDTO EntryDTO) (EntryInput, error) {
	var date time.Time
	if entryDTO.Date != "" {
		var err error
		if date, err = time.Parse("2006-01-02", entryDTO.Date); err != nil {
			return EntryInput{}, err
		}
	}
	return EntryInput{
		Kind:          EntryKind(entryDTO.Kind),
		AccountID:     entryDTO.AccountID,
		FromAccountID: entryDTO.FromAccountID,
		ToAccountID:   entryDTO.ToAccountID,
		CategoryID:    entryDTO.CategoryID,
		Amount:        entryDTO.Amount,
		Date:          date,
		Cleared:       entryDTO.Cleared,
		Payee:         entryDTO.Payee,
		Description:   entryDTO.Description,
	}, nil
}

func categoryID(ref ledger.CategoryRef) string {
	if specific, ok := ref.ID(); ok {
		return specific
	}
	return ""
}
