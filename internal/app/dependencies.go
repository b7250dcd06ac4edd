package app

import (
	"database/sql"

	"github.com/ledgerd/ledgerd/internal/config"
	"github.com/ledgerd/ledgerd/internal/event_bus"
	"github.com/ledgerd/ledgerd/internal/utils"
	"github.com/ledgerd/ledgerd/pkg/account"
	"github.com/ledgerd/ledgerd/pkg/allocation"
	"github.com/ledgerd/ledgerd/pkg/budget"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/category"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/months"
	"github.com/ledgerd/ledgerd/pkg/sequence"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	BudgetRepo    budget.BudgetRepo
	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	AccountRepo    account.AccountRepo
	AccountService *account.AccountServiceImpl
	AccountHandler *account.AccountHandler

	CategoryRepo    category.CategoryRepo
	CategoryService *category.CategoryServiceImpl
	CategoryHandler *category.CategoryHandler

	LedgerRepo   ledger.Repository
	Orchestrator *cascade.Orchestrator
	Navigator    *sequence.Navigator

	MonthService *months.ServiceImpl
	MonthHandler *months.MonthHandler

	AllocationService *allocation.ServiceImpl
	AllocationHandler *allocation.AllocationHandler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.BudgetRepo = budget.NewBudgetRepo(db)
	deps.BudgetService = budget.NewBudgetService(deps.BudgetRepo, deps.Clock)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	deps.AccountRepo = account.NewAccountRepo(db)
	deps.AccountService = account.NewAccountService(deps.AccountRepo, deps.Clock)
	deps.AccountHandler = account.NewAccountHandler(deps.AccountService)

	deps.CategoryRepo = category.NewCategoryRepo(db)
	deps.CategoryService = category.NewCategoryService(deps.CategoryRepo, deps.Clock)
	deps.CategoryHandler = category.NewCategoryHandler(deps.CategoryService)

	deps.LedgerRepo = ledger.NewRepository(db)
	deps.Orchestrator = cascade.NewOrchestrator(deps.LedgerRepo, deps.EventBus)
	deps.Navigator = sequence.NewNavigator(deps.Clock, cfg.Months.CreationWindow)

	deps.MonthService = months.NewService(deps.LedgerRepo, deps.Navigator, deps.Orchestrator)
	deps.MonthHandler = months.NewMonthHandler(deps.MonthService)

	deps.AllocationService = allocation.NewService(deps.LedgerRepo, deps.Orchestrator, deps.EventBus)
	deps.AllocationHandler = allocation.NewAllocationHandler(deps.AllocationService)

	deps.EventBus.Subscribe(event_bus.MonthRecalculated, func(e event_bus.Event) error {
		if payload, ok := e.Data.(event_bus.MonthRecalculatedEvent); ok {
			log.Infof("month %04d-%02d of budget %s recalculated, %d later month(s) updated",
				payload.Year, payload.Month, payload.BudgetID, payload.CascadedMonths)
		}
		return nil
	})

	return deps
}
