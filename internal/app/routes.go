package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Budgets
	r.HandleFunc("/api/budget", deps.BudgetHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget/{id}", deps.BudgetHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{id}", deps.BudgetHandler.Update).Methods("PUT")
	r.HandleFunc("/api/budget/{id}", deps.BudgetHandler.Delete).Methods("DELETE")

	// Accounts
	r.HandleFunc("/api/budget/{budgetId}/account", deps.AccountHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/account", deps.AccountHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/account/{id}", deps.AccountHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/account/{id}", deps.AccountHandler.Update).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}/account/{id}", deps.AccountHandler.Delete).Methods("DELETE")

	// Categories
	r.HandleFunc("/api/budget/{budgetId}/category", deps.CategoryHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/category", deps.CategoryHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/category/{id}", deps.CategoryHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/category/{id}", deps.CategoryHandler.Update).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}/category/{id}", deps.CategoryHandler.Delete).Methods("DELETE")

	// Ledger months
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}", deps.MonthHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}", deps.MonthHandler.Create).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/recalculate", deps.MonthHandler.Recalculate).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/cleared-balances", deps.MonthHandler.ClearedBalances).Methods("GET")

	// Ledger entries
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/entry", deps.MonthHandler.AddEntry).Methods("POST")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/entry/{entryId}", deps.MonthHandler.UpdateEntry).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/entry/{entryId}", deps.MonthHandler.DeleteEntry).Methods("DELETE")

	// Allocations
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/allocations", deps.AllocationHandler.Get).Methods("GET")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/allocations/draft", deps.AllocationHandler.SaveDraft).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/allocations/finalize", deps.AllocationHandler.Finalize).Methods("PUT")
	r.HandleFunc("/api/budget/{budgetId}/month/{year}/{month}/allocations", deps.AllocationHandler.DeleteAll).Methods("DELETE")
}
