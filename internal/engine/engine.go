// Package engine implements the conversation state machine. Given the current
// session and one inbound text, Handle decides the next state, performs ledger
// calls, and produces the reply for the transport to deliver.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
)

// ReportRequester enqueues a monthly report export. Optional: without one the
// export menu entry answers that exporting is not configured.
type ReportRequester interface {
	RequestMonthlyReport(ctx context.Context, yearMonth string) error
}

type Engine struct {
	store   ledger.Store
	reports ReportRequester
}

func New(store ledger.Store, reports ReportRequester) *Engine {
	return &Engine{store: store, reports: reports}
}

// Handle processes one inbound message. It always produces a reply; a failed
// store call leaves the session state untouched so the user can retry.
func (e *Engine) Handle(ctx context.Context, sess *Session, text string) Reply {
	text = strings.TrimSpace(text)

	// The entry command restarts the conversation from any state.
	if text == StartCommand {
		sess.Reset()
		sess.State = StateMainMenu
		return Reply{Text: "💸 Personal finance tracker", Keyboard: mainMenuKeyboard()}
	}

	switch sess.State {
	case StateMainMenu:
		return e.handleMainMenu(sess, text)
	case StateAddMenu:
		return e.handleAddMenu(ctx, sess, text)
	case StateChoosingCategory:
		return e.handleChoosingCategory(ctx, sess, text)
	case StateChoosingCurrency:
		return e.handleChoosingCurrency(ctx, sess, text)
	case StateTypingAmount:
		return e.handleTypingAmount(ctx, sess, text)
	case StateHistoryMenu:
		return e.handleHistoryMenu(ctx, sess, text)
	case StateTypingDate:
		return e.handleTypingDate(ctx, sess, text)
	case StateStatsMenu:
		return e.handleStatsMenu(ctx, sess, text)
	case StateSettingsMenu:
		return e.handleSettingsMenu(sess, text)
	case StateConfirmClear:
		return e.handleConfirmClear(ctx, sess, text)
	case StateChooseDelete:
		return e.handleChooseDelete(ctx, sess, text)
	case StateChooseEdit:
		return e.handleChooseEdit(sess, text)
	case StateEditAmount:
		return e.handleEditAmount(ctx, sess, text)
	case StateCurrencyMenu:
		return e.handleCurrencyMenu(ctx, sess, text)
	case StateAddCurrency:
		return e.handleAddCurrency(ctx, sess, text)
	case StateDeleteCurrency:
		return e.handleDeleteCurrency(ctx, sess, text)
	case StateCategoryMenu:
		return e.handleCategoryMenu(ctx, sess, text)
	case StateAddCategory:
		return e.handleAddCategory(ctx, sess, text)
	case StateDeleteCategory:
		return e.handleDeleteCategory(ctx, sess, text)
	}

	// Unknown state: recover by restarting at the main menu.
	slog.Warn("Unknown conversation state, resetting", "state", sess.State)
	sess.Reset()
	return e.toMainMenu(sess, "Main menu:")
}

func (e *Engine) toMainMenu(sess *Session, text string) Reply {
	sess.State = StateMainMenu
	return Reply{Text: text, Keyboard: mainMenuKeyboard()}
}

// storeFault logs a storage error and re-prompts without changing state.
func storeFault(ctx context.Context, sess *Session, op string, err error) Reply {
	slog.ErrorContext(ctx, "Store call failed",
		"operation", op,
		"state", sess.State.String(),
		"error", err)
	return Reply{Text: "⚠️ Something went wrong. Please try again."}
}

func (e *Engine) handleMainMenu(sess *Session, text string) Reply {
	switch text {
	case BtnAdd:
		sess.State = StateAddMenu
		return Reply{Text: "Choose the operation type:", Keyboard: addMenuKeyboard()}
	case BtnHistory:
		sess.State = StateHistoryMenu
		return Reply{Text: "Operation history:", Keyboard: historyMenuKeyboard()}
	case BtnStats:
		sess.State = StateStatsMenu
		return Reply{Text: "Stats:", Keyboard: statsMenuKeyboard()}
	case BtnSettings:
		sess.State = StateSettingsMenu
		return Reply{Text: "Settings:", Keyboard: settingsMenuKeyboard()}
	case BtnCurrencies:
		sess.State = StateCurrencyMenu
		return Reply{Text: "Currency management:", Keyboard: currenciesMenuKeyboard()}
	}
	return Reply{Text: "Main menu:", Keyboard: mainMenuKeyboard()}
}

func (e *Engine) handleAddMenu(ctx context.Context, sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		return e.toMainMenu(sess, "Main menu:")
	case BtnIncome:
		sess.PendingKind = core.Income
		sess.PendingCategory = ""
		return e.promptCurrency(ctx, sess)
	case BtnExpense:
		sess.PendingKind = core.Expense
		return e.promptCategory(ctx, sess)
	}
	return Reply{Text: "Choose the operation type:", Keyboard: addMenuKeyboard()}
}

func (e *Engine) promptCategory(ctx context.Context, sess *Session) Reply {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return storeFault(ctx, sess, "list categories", err)
	}
	sess.State = StateChoosingCategory
	return Reply{Text: "Choose a category:", Keyboard: pickKeyboard(categories)}
}

func (e *Engine) promptCurrency(ctx context.Context, sess *Session) Reply {
	currencies, err := e.store.ListCurrencies(ctx)
	if err != nil {
		return storeFault(ctx, sess, "list currencies", err)
	}
	if len(currencies) == 0 {
		sess.Reset()
		return e.toMainMenu(sess, "Add a currency first under 💱 Currencies.")
	}
	sess.State = StateChoosingCurrency
	return Reply{Text: "Choose a currency:", Keyboard: pickKeyboard(currencies)}
}

func (e *Engine) handleChoosingCategory(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateAddMenu
		return Reply{Text: "Choose the operation type:", Keyboard: addMenuKeyboard()}
	}
	sess.PendingCategory = text
	return e.promptCurrency(ctx, sess)
}

func (e *Engine) handleChoosingCurrency(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		if sess.PendingKind == core.Expense {
			return e.promptCategory(ctx, sess)
		}
		sess.State = StateAddMenu
		return Reply{Text: "Choose the operation type:", Keyboard: addMenuKeyboard()}
	}
	sess.PendingCurrency = core.NormalizeCurrency(text)
	sess.State = StateTypingAmount
	return Reply{Text: "Enter the amount:", Keyboard: backKeyboard()}
}

func (e *Engine) handleTypingAmount(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		return e.promptCurrency(ctx, sess)
	}

	amount, err := core.ParseDecimalToCents(text)
	if err != nil {
		return Reply{Text: "Enter a number.", Keyboard: backKeyboard()}
	}

	op := core.Operation{
		Kind:     sess.PendingKind,
		Amount:   amount,
		Currency: sess.PendingCurrency,
		Category: sess.PendingCategory,
		Date:     core.Today(),
	}
	if err := op.Validate(); err != nil {
		// A half-built session means the flow was corrupted; start over.
		slog.WarnContext(ctx, "Pending operation invalid, restarting flow", "error", err)
		sess.Reset()
		return e.toMainMenu(sess, "Main menu:")
	}

	if _, err := e.store.AddOperation(ctx, op); err != nil {
		return storeFault(ctx, sess, "add operation", err)
	}

	confirmation := fmt.Sprintf("💰 %s %s added", op.Amount, op.Currency)
	if op.Kind == core.Expense {
		confirmation = fmt.Sprintf("💸 %s %s spent", op.Amount, op.Currency)
	}
	sess.Reset()
	return e.toMainMenu(sess, confirmation)
}

func (e *Engine) handleHistoryMenu(ctx context.Context, sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		return e.toMainMenu(sess, "Main menu:")
	case BtnToday:
		return e.renderListing(ctx, sess, core.Today())
	case BtnYesterday:
		return e.renderListing(ctx, sess, core.Yesterday())
	case BtnEnterDate:
		sess.State = StateTypingDate
		return Reply{Text: "Enter a date as DD.MM", Keyboard: backKeyboard()}
	case BtnEdit:
		if len(sess.DisplayedIDs) == 0 {
			return Reply{Text: "Show a listing first.", Keyboard: historyMenuKeyboard()}
		}
		sess.State = StateChooseEdit
		return Reply{Text: "Enter the number of the operation to edit:", Keyboard: backKeyboard()}
	case BtnDelete:
		if len(sess.DisplayedIDs) == 0 {
			return Reply{Text: "Show a listing first.", Keyboard: historyMenuKeyboard()}
		}
		sess.State = StateChooseDelete
		return Reply{Text: "Enter the number of the operation to delete:", Keyboard: backKeyboard()}
	}
	return Reply{Text: "Operation history:", Keyboard: historyMenuKeyboard()}
}

func (e *Engine) handleTypingDate(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateHistoryMenu
		return Reply{Text: "Operation history:", Keyboard: historyMenuKeyboard()}
	}
	date, err := core.ParseDayMonth(text)
	if err != nil {
		return Reply{Text: "Invalid format. Enter DD.MM", Keyboard: backKeyboard()}
	}
	return e.renderListing(ctx, sess, date)
}

// renderListing shows the operations of one date and rebuilds the ordinal
// mapping. Rendering always replaces the previous mapping, even when empty.
func (e *Engine) renderListing(ctx context.Context, sess *Session, date core.Date) Reply {
	ops, err := e.store.OperationsByDate(ctx, date)
	if err != nil {
		return storeFault(ctx, sess, "operations by date", err)
	}

	sess.State = StateHistoryMenu
	if len(ops) == 0 {
		sess.SetListing(nil)
		return Reply{
			Text:     fmt.Sprintf("No operations on %s.", date),
			Keyboard: historyMenuKeyboard(),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Operations on %s:\n\n", date)
	ids := make([]int64, 0, len(ops))
	for i, op := range ops {
		sign := "💰"
		if op.Kind == core.Expense {
			sign = "💸"
		}
		category := ""
		if op.Category != "" {
			category = fmt.Sprintf(" (%s)", op.Category)
		}
		fmt.Fprintf(&b, "%d. %s %s %s%s\n", i+1, sign, op.Amount, op.Currency, category)
		ids = append(ids, op.ID)
	}
	sess.SetListing(ids)
	return Reply{Text: b.String(), Keyboard: historyActionsKeyboard()}
}

func (e *Engine) handleChooseDelete(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateHistoryMenu
		return Reply{Text: "Operation history:", Keyboard: historyActionsKeyboard()}
	}
	id, ok := sess.ResolveOrdinal(text)
	if !ok {
		return Reply{Text: "Invalid number.", Keyboard: backKeyboard()}
	}
	if err := e.store.DeleteOperation(ctx, id); err != nil {
		return storeFault(ctx, sess, "delete operation", err)
	}
	return e.toMainMenu(sess, "🗑 Operation deleted")
}

func (e *Engine) handleChooseEdit(sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateHistoryMenu
		return Reply{Text: "Operation history:", Keyboard: historyActionsKeyboard()}
	}
	id, ok := sess.ResolveOrdinal(text)
	if !ok {
		return Reply{Text: "Invalid number.", Keyboard: backKeyboard()}
	}
	sess.EditTargetID = id
	sess.State = StateEditAmount
	return Reply{Text: "Enter the new amount:", Keyboard: backKeyboard()}
}

func (e *Engine) handleEditAmount(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.EditTargetID = 0
		sess.State = StateChooseEdit
		return Reply{Text: "Enter the number of the operation to edit:", Keyboard: backKeyboard()}
	}
	amount, err := core.ParseDecimalToCents(text)
	if err != nil {
		return Reply{Text: "Enter a number.", Keyboard: backKeyboard()}
	}
	if err := e.store.UpdateOperationAmount(ctx, sess.EditTargetID, amount); err != nil {
		return storeFault(ctx, sess, "update operation amount", err)
	}
	sess.Reset()
	return e.toMainMenu(sess, "✏️ Operation updated")
}

func (e *Engine) handleStatsMenu(ctx context.Context, sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		return e.toMainMenu(sess, "Main menu:")
	case BtnBalance:
		balances, err := e.store.Balance(ctx)
		if err != nil {
			return storeFault(ctx, sess, "balance", err)
		}
		if len(balances) == 0 {
			return e.toMainMenu(sess, "💰 Balance:\nno operations yet")
		}
		currencies := make([]string, 0, len(balances))
		for currency := range balances {
			currencies = append(currencies, currency)
		}
		sort.Strings(currencies)
		var b strings.Builder
		b.WriteString("💰 Balance:\n")
		for _, currency := range currencies {
			fmt.Fprintf(&b, "%s: %s\n", currency, balances[currency])
		}
		return e.toMainMenu(sess, b.String())
	case BtnMonthly:
		yearMonth := core.Today().YearMonth()
		stats, err := e.store.MonthlyCategoryStats(ctx, yearMonth)
		if err != nil {
			return storeFault(ctx, sess, "monthly category stats", err)
		}
		if len(stats) == 0 {
			return e.toMainMenu(sess, "📊 No expenses this month.")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "📊 Spending by category (%s):\n", yearMonth)
		for _, row := range stats {
			category := row.Category
			if category == "" {
				category = "📦 Other"
			}
			fmt.Fprintf(&b, "%s: %s %s\n", category, row.Total, row.Currency)
		}
		return e.toMainMenu(sess, b.String())
	case BtnExport:
		if e.reports == nil {
			return e.toMainMenu(sess, "Export is not configured.")
		}
		yearMonth := core.Today().YearMonth()
		if err := e.reports.RequestMonthlyReport(ctx, yearMonth); err != nil {
			slog.ErrorContext(ctx, "Report request failed", "year_month", yearMonth, "error", err)
			return Reply{Text: "⚠️ Could not request the export. Please try again.", Keyboard: statsMenuKeyboard()}
		}
		return e.toMainMenu(sess, fmt.Sprintf("📤 Export of %s requested.", yearMonth))
	}
	return Reply{Text: "Stats:", Keyboard: statsMenuKeyboard()}
}

func (e *Engine) handleSettingsMenu(sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		return e.toMainMenu(sess, "Main menu:")
	case BtnManageCategories:
		sess.State = StateCategoryMenu
		return Reply{Text: "Category management:", Keyboard: categoriesMenuKeyboard()}
	case BtnClearLedger:
		sess.State = StateConfirmClear
		return Reply{Text: "Delete every recorded operation?", Keyboard: confirmClearKeyboard()}
	}
	return Reply{Text: "Settings:", Keyboard: settingsMenuKeyboard()}
}

func (e *Engine) handleConfirmClear(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnYes {
		if err := e.store.ClearOperations(ctx); err != nil {
			return storeFault(ctx, sess, "clear operations", err)
		}
		return e.toMainMenu(sess, "Ledger cleared.")
	}
	return e.toMainMenu(sess, "Cancelled.")
}

func (e *Engine) handleCurrencyMenu(ctx context.Context, sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		return e.toMainMenu(sess, "Main menu:")
	case BtnAddCurrency:
		sess.State = StateAddCurrency
		return Reply{Text: "Enter a currency code (e.g. USD):", Keyboard: backKeyboard()}
	case BtnDeleteCurrency:
		currencies, err := e.store.ListCurrencies(ctx)
		if err != nil {
			return storeFault(ctx, sess, "list currencies", err)
		}
		if len(currencies) == 0 {
			return Reply{Text: "No currencies yet.", Keyboard: currenciesMenuKeyboard()}
		}
		sess.State = StateDeleteCurrency
		return Reply{Text: "Choose a currency to delete:", Keyboard: pickKeyboard(currencies)}
	}
	return Reply{Text: "Currency management:", Keyboard: currenciesMenuKeyboard()}
}

func (e *Engine) handleAddCurrency(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateCurrencyMenu
		return Reply{Text: "Currency management:", Keyboard: currenciesMenuKeyboard()}
	}
	code := core.NormalizeCurrency(text)
	if code == "" {
		return Reply{Text: "Enter a currency code.", Keyboard: backKeyboard()}
	}
	created, err := e.store.AddCurrency(ctx, code)
	if err != nil {
		return storeFault(ctx, sess, "add currency", err)
	}
	if !created {
		slog.InfoContext(ctx, "Currency already registered", "code", code)
	}
	sess.State = StateCurrencyMenu
	return Reply{
		Text:     fmt.Sprintf("✅ Currency %s added.", code),
		Keyboard: currenciesMenuKeyboard(),
	}
}

func (e *Engine) handleDeleteCurrency(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateCurrencyMenu
		return Reply{Text: "Currency management:", Keyboard: currenciesMenuKeyboard()}
	}
	code := core.NormalizeCurrency(text)
	if err := e.store.DeleteCurrency(ctx, code); err != nil {
		return storeFault(ctx, sess, "delete currency", err)
	}
	sess.State = StateCurrencyMenu
	return Reply{
		Text:     fmt.Sprintf("🗑 Currency %s deleted.", code),
		Keyboard: currenciesMenuKeyboard(),
	}
}

func (e *Engine) handleCategoryMenu(ctx context.Context, sess *Session, text string) Reply {
	switch text {
	case BtnBack:
		sess.State = StateSettingsMenu
		return Reply{Text: "Settings:", Keyboard: settingsMenuKeyboard()}
	case BtnAddCategory:
		sess.State = StateAddCategory
		return Reply{Text: "Enter a name for the new category:", Keyboard: backKeyboard()}
	case BtnDeleteCategory:
		categories, err := e.store.ListCategories(ctx)
		if err != nil {
			return storeFault(ctx, sess, "list categories", err)
		}
		if len(categories) == 0 {
			return Reply{Text: "No categories yet.", Keyboard: categoriesMenuKeyboard()}
		}
		sess.State = StateDeleteCategory
		return Reply{Text: "Choose a category to delete:", Keyboard: pickKeyboard(categories)}
	}
	return Reply{Text: "Category management:", Keyboard: categoriesMenuKeyboard()}
}

func (e *Engine) handleAddCategory(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateCategoryMenu
		return Reply{Text: "Category management:", Keyboard: categoriesMenuKeyboard()}
	}
	name := strings.TrimSpace(text)
	if name == "" {
		return Reply{Text: "Enter a category name.", Keyboard: backKeyboard()}
	}
	created, err := e.store.AddCategory(ctx, name)
	if err != nil {
		return storeFault(ctx, sess, "add category", err)
	}
	if !created {
		slog.InfoContext(ctx, "Category already registered", "name", name)
	}
	sess.State = StateCategoryMenu
	return Reply{
		Text:     fmt.Sprintf("✅ Category '%s' added.", name),
		Keyboard: categoriesMenuKeyboard(),
	}
}

func (e *Engine) handleDeleteCategory(ctx context.Context, sess *Session, text string) Reply {
	if text == BtnBack {
		sess.State = StateCategoryMenu
		return Reply{Text: "Category management:", Keyboard: categoriesMenuKeyboard()}
	}
	name := strings.TrimSpace(text)
	if err := e.store.DeleteCategory(ctx, name); err != nil {
		return storeFault(ctx, sess, "delete category", err)
	}
	sess.State = StateCategoryMenu
	return Reply{
		Text:     fmt.Sprintf("🗑 Category '%s' deleted.", name),
		Keyboard: categoriesMenuKeyboard(),
	}
}
