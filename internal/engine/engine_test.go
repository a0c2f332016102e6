package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *Session) {
	t.Helper()
	store := memory.New()
	if _, err := store.AddCurrency(context.Background(), "usd"); err != nil {
		t.Fatalf("seed currency: %v", err)
	}
	return New(store, nil), store, NewSession()
}

// drive feeds the inputs in order and returns the last reply.
func drive(t *testing.T, eng *Engine, sess *Session, inputs ...string) Reply {
	t.Helper()
	var reply Reply
	for _, input := range inputs {
		reply = eng.Handle(context.Background(), sess, input)
	}
	return reply
}

func TestStartCommandResetsToMainMenu(t *testing.T) {
	eng, _, sess := newTestEngine(t)
	sess.State = StateTypingAmount
	sess.PendingKind = core.Income

	reply := drive(t, eng, sess, "/start")

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu, got %s", sess.State)
	}
	if sess.PendingKind != "" {
		t.Fatalf("pending state should be cleared")
	}
	if len(reply.Keyboard) == 0 || reply.Keyboard[0][0] != BtnAdd {
		t.Fatalf("expected main menu keyboard, got %v", reply.Keyboard)
	}
}

func TestAddIncomeFlow(t *testing.T) {
	eng, store, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnAdd, BtnIncome, "USD", "100")

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu after commit, got %s", sess.State)
	}
	if reply.Text != "💰 100 USD added" {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	balances, err := store.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balances["USD"].Cents != 10000 {
		t.Fatalf("expected 10000 cents, got %d", balances["USD"].Cents)
	}
}

func TestAddExpenseFlowAndMonthlyStats(t *testing.T) {
	eng, store, sess := newTestEngine(t)

	drive(t, eng, sess, BtnAdd, BtnIncome, "USD", "100")
	reply := drive(t, eng, sess, BtnAdd, BtnExpense, "🍔 Food", "USD", "30")

	if reply.Text != "💸 30 USD spent" {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	balances, err := store.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balances["USD"].Cents != 7000 {
		t.Fatalf("expected net 7000 cents, got %d", balances["USD"].Cents)
	}

	stats, err := store.MonthlyCategoryStats(context.Background(), core.Today().YearMonth())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Category != "🍔 Food" || stats[0].Currency != "USD" || stats[0].Total.Cents != 3000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestTypingAmountRejectsNonNumeric(t *testing.T) {
	eng, store, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnAdd, BtnIncome, "USD", "abc")

	if sess.State != StateTypingAmount {
		t.Fatalf("expected to stay in typing_amount, got %s", sess.State)
	}
	if reply.Text != "Enter a number." {
		t.Fatalf("unexpected re-prompt: %q", reply.Text)
	}

	balances, err := store.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("no operation should have been created: %v", balances)
	}
}

func TestBackFromAmountReturnsToCurrency(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnAdd, BtnExpense, "🍔 Food", "USD", BtnBack)

	if sess.State != StateChoosingCurrency {
		t.Fatalf("expected choosing_currency, got %s", sess.State)
	}
	if reply.Text != "Choose a currency:" {
		t.Fatalf("unexpected prompt: %q", reply.Text)
	}
}

func TestIncomeWithoutCurrenciesReturnsToMainMenu(t *testing.T) {
	store := memory.New()
	eng := New(store, nil)
	sess := NewSession()

	reply := drive(t, eng, sess, BtnAdd, BtnIncome)

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu, got %s", sess.State)
	}
	if !strings.Contains(reply.Text, "Add a currency first") {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

func seedExpenses(t *testing.T, store *memory.Store, cents ...int64) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(cents))
	for _, c := range cents {
		id, err := store.AddOperation(context.Background(), core.Operation{
			Kind:     core.Expense,
			Amount:   core.Money{Cents: c},
			Currency: "USD",
			Category: "🍔 Food",
			Date:     core.Today(),
		})
		if err != nil {
			t.Fatalf("seed operation: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestOrdinalRoundTripDelete(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	ids := seedExpenses(t, store, 1000, 2000, 3000)

	listing := drive(t, eng, sess, BtnHistory, BtnToday)
	if sess.State != StateHistoryMenu {
		t.Fatalf("expected history_menu, got %s", sess.State)
	}
	if len(sess.DisplayedIDs) != 3 {
		t.Fatalf("expected 3 displayed ids, got %v", sess.DisplayedIDs)
	}
	for i, id := range ids {
		if sess.DisplayedIDs[i] != id {
			t.Fatalf("ordinal %d should map to id %d, got %d", i+1, id, sess.DisplayedIDs[i])
		}
	}
	if !strings.Contains(listing.Text, "1. 💸 10 USD") {
		t.Fatalf("unexpected listing: %q", listing.Text)
	}

	// Out-of-range ordinal is rejected in place.
	reply := drive(t, eng, sess, BtnDelete, "9")
	if sess.State != StateChooseDelete {
		t.Fatalf("expected choose_delete, got %s", sess.State)
	}
	if reply.Text != "Invalid number." {
		t.Fatalf("unexpected re-prompt: %q", reply.Text)
	}

	// Ordinal 2 deletes exactly the middle operation.
	reply = drive(t, eng, sess, "2")
	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu after delete, got %s", sess.State)
	}
	if reply.Text != "🗑 Operation deleted" {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	remaining, err := store.OperationsByDate(context.Background(), core.Today())
	if err != nil {
		t.Fatalf("operations by date: %v", err)
	}
	if len(remaining) != 2 || remaining[0].ID != ids[0] || remaining[1].ID != ids[2] {
		t.Fatalf("expected ids %d and %d to remain, got %+v", ids[0], ids[2], remaining)
	}
}

func TestEditFlowUpdatesAmount(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	ids := seedExpenses(t, store, 1000)

	drive(t, eng, sess, BtnHistory, BtnToday, BtnEdit, "1")
	if sess.State != StateEditAmount {
		t.Fatalf("expected edit_amount, got %s", sess.State)
	}

	// Non-numeric input re-prompts without advancing.
	reply := drive(t, eng, sess, "lots")
	if sess.State != StateEditAmount || reply.Text != "Enter a number." {
		t.Fatalf("expected re-prompt in edit_amount, got %s %q", sess.State, reply.Text)
	}

	reply = drive(t, eng, sess, "55.5")
	if sess.State != StateMainMenu || reply.Text != "✏️ Operation updated" {
		t.Fatalf("expected update confirmation, got %s %q", sess.State, reply.Text)
	}

	ops, err := store.OperationsByDate(context.Background(), core.Today())
	if err != nil {
		t.Fatalf("operations by date: %v", err)
	}
	if len(ops) != 1 || ops[0].ID != ids[0] || ops[0].Amount.Cents != 5550 {
		t.Fatalf("expected amount 5550 on id %d, got %+v", ids[0], ops)
	}
}

func TestEditWithoutListingIsRejected(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnHistory, BtnEdit)

	if sess.State != StateHistoryMenu {
		t.Fatalf("expected history_menu, got %s", sess.State)
	}
	if reply.Text != "Show a listing first." {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

func TestEmptyListingClearsOrdinals(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	seedExpenses(t, store, 1000)

	drive(t, eng, sess, BtnHistory, BtnToday)
	if len(sess.DisplayedIDs) != 1 {
		t.Fatalf("expected 1 displayed id, got %v", sess.DisplayedIDs)
	}

	reply := drive(t, eng, sess, BtnYesterday)
	if !strings.Contains(reply.Text, "No operations") {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
	if len(sess.DisplayedIDs) != 0 {
		t.Fatalf("empty listing must invalidate ordinals, got %v", sess.DisplayedIDs)
	}
}

func TestTypingDateRejectsMalformedInput(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnHistory, BtnEnterDate, "99.99")
	if sess.State != StateTypingDate {
		t.Fatalf("expected typing_date, got %s", sess.State)
	}
	if reply.Text != "Invalid format. Enter DD.MM" {
		t.Fatalf("unexpected re-prompt: %q", reply.Text)
	}

	drive(t, eng, sess, BtnBack)
	if sess.State != StateHistoryMenu {
		t.Fatalf("expected history_menu after back, got %s", sess.State)
	}
}

func TestBalanceOnEmptyLedger(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnStats, BtnBalance)

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu, got %s", sess.State)
	}
	if !strings.Contains(reply.Text, "no operations yet") {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

func TestMonthlyStatsEmptyMessage(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnStats, BtnMonthly)

	if reply.Text != "📊 No expenses this month." {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

func TestMonthlyStatsRendersUncategorizedAsOther(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	// A category-less expense can exist in an imported ledger; the store
	// accepts what it is given.
	if _, err := store.AddOperation(context.Background(), core.Operation{
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 500},
		Currency: "USD",
		Date:     core.Today(),
	}); err != nil {
		t.Fatalf("seed operation: %v", err)
	}

	reply := drive(t, eng, sess, BtnStats, BtnMonthly)

	if !strings.Contains(reply.Text, "📦 Other: 5 USD") {
		t.Fatalf("unexpected stats rendering: %q", reply.Text)
	}
}

func TestConfirmClearKeepsRegistries(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	seedExpenses(t, store, 1000)

	reply := drive(t, eng, sess, BtnSettings, BtnClearLedger, BtnYes)
	if reply.Text != "Ledger cleared." {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	balances, err := store.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("expected empty ledger, got %v", balances)
	}

	categories, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) == 0 {
		t.Fatalf("clearing the ledger must not touch categories")
	}
	currencies, err := store.ListCurrencies(context.Background())
	if err != nil {
		t.Fatalf("list currencies: %v", err)
	}
	if len(currencies) != 1 {
		t.Fatalf("clearing the ledger must not touch currencies, got %v", currencies)
	}
}

func TestConfirmClearAnythingElseCancels(t *testing.T) {
	eng, store, sess := newTestEngine(t)
	seedExpenses(t, store, 1000)

	reply := drive(t, eng, sess, BtnSettings, BtnClearLedger, "maybe?")
	if reply.Text != "Cancelled." {
		t.Fatalf("unexpected message: %q", reply.Text)
	}

	ops, err := store.OperationsByDate(context.Background(), core.Today())
	if err != nil {
		t.Fatalf("operations by date: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("cancel must not delete anything, got %+v", ops)
	}
}

func TestDuplicateCurrencyAddRendersSuccess(t *testing.T) {
	eng, store, sess := newTestEngine(t)

	first := drive(t, eng, sess, BtnCurrencies, BtnAddCurrency, "eur")
	second := drive(t, eng, sess, BtnAddCurrency, "EUR")

	if first.Text != "✅ Currency EUR added." || second.Text != "✅ Currency EUR added." {
		t.Fatalf("duplicate add must render like success: %q / %q", first.Text, second.Text)
	}

	currencies, err := store.ListCurrencies(context.Background())
	if err != nil {
		t.Fatalf("list currencies: %v", err)
	}
	count := 0
	for _, c := range currencies {
		if c == "EUR" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single EUR entry, got %v", currencies)
	}
}

func TestCategoryManagementFlow(t *testing.T) {
	eng, store, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnSettings, BtnManageCategories, BtnAddCategory, "📚 Books")
	if sess.State != StateCategoryMenu {
		t.Fatalf("expected category_menu, got %s", sess.State)
	}
	if reply.Text != "✅ Category '📚 Books' added." {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	reply = drive(t, eng, sess, BtnDeleteCategory, "📚 Books")
	if reply.Text != "🗑 Category '📚 Books' deleted." {
		t.Fatalf("unexpected confirmation: %q", reply.Text)
	}

	categories, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	for _, c := range categories {
		if c == "📚 Books" {
			t.Fatalf("category should be gone, got %v", categories)
		}
	}
}

func TestUnrecognizedInputReRendersMenu(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, "what is this")

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu, got %s", sess.State)
	}
	if reply.Text != "Main menu:" {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

type fakeReporter struct {
	months []string
	err    error
}

func (f *fakeReporter) RequestMonthlyReport(_ context.Context, yearMonth string) error {
	if f.err != nil {
		return f.err
	}
	f.months = append(f.months, yearMonth)
	return nil
}

func TestExportRequest(t *testing.T) {
	store := memory.New()
	reporter := &fakeReporter{}
	eng := New(store, reporter)
	sess := NewSession()

	reply := drive(t, eng, sess, BtnStats, BtnExport)

	if sess.State != StateMainMenu {
		t.Fatalf("expected main menu, got %s", sess.State)
	}
	if !strings.Contains(reply.Text, "requested") {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
	if len(reporter.months) != 1 || reporter.months[0] != core.Today().YearMonth() {
		t.Fatalf("expected one request for the current month, got %v", reporter.months)
	}
}

func TestExportRequestFailureStaysInStats(t *testing.T) {
	store := memory.New()
	reporter := &fakeReporter{err: errors.New("broker down")}
	eng := New(store, reporter)
	sess := NewSession()

	reply := drive(t, eng, sess, BtnStats, BtnExport)

	if sess.State != StateStatsMenu {
		t.Fatalf("expected stats_menu, got %s", sess.State)
	}
	if !strings.Contains(reply.Text, "try again") && !strings.Contains(reply.Text, "Try again") {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}

func TestExportWithoutReporter(t *testing.T) {
	eng, _, sess := newTestEngine(t)

	reply := drive(t, eng, sess, BtnStats, BtnExport)

	if reply.Text != "Export is not configured." {
		t.Fatalf("unexpected message: %q", reply.Text)
	}
}
