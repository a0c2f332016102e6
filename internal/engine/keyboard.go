package engine

// Button labels. The transport renders them as suggested replies; matching is
// by literal text, so these constants are the de facto input vocabulary.
const (
	StartCommand = "/start"

	BtnAdd        = "➕ Add"
	BtnStats      = "📊 Stats"
	BtnHistory    = "📅 History"
	BtnCurrencies = "💱 Currencies"
	BtnSettings   = "⚙️ Settings"
	BtnBack       = "⬅️ Back"

	BtnIncome  = "💰 Income"
	BtnExpense = "💸 Expense"

	BtnToday     = "Today"
	BtnYesterday = "Yesterday"
	BtnEnterDate = "🗓 Enter date"
	BtnEdit      = "✏️ Edit"
	BtnDelete    = "🗑 Delete"

	BtnBalance = "💰 Balance"
	BtnMonthly = "📊 Spending by category (month)"
	BtnExport  = "📤 Export month"

	BtnManageCategories = "🛠 Categories"
	BtnClearLedger      = "🗑 Clear ledger"
	BtnYes              = "✅ Yes"
	BtnNo               = "❌ No"

	BtnAddCurrency    = "➕ Add currency"
	BtnDeleteCurrency = "🗑 Delete currency"
	BtnAddCategory    = "➕ Add category"
	BtnDeleteCategory = "🗑 Delete category"
)

// Reply is one outbound chat turn: the message text plus suggested reply
// options as ordered rows.
type Reply struct {
	Text     string
	Keyboard [][]string
}

func mainMenuKeyboard() [][]string {
	return [][]string{
		{BtnAdd},
		{BtnStats, BtnHistory},
		{BtnCurrencies, BtnSettings},
	}
}

func addMenuKeyboard() [][]string {
	return [][]string{
		{BtnIncome, BtnExpense},
		{BtnBack},
	}
}

func historyMenuKeyboard() [][]string {
	return [][]string{
		{BtnToday, BtnYesterday},
		{BtnEnterDate},
		{BtnBack},
	}
}

func historyActionsKeyboard() [][]string {
	return [][]string{
		{BtnEdit, BtnDelete},
		{BtnBack},
	}
}

func statsMenuKeyboard() [][]string {
	return [][]string{
		{BtnBalance},
		{BtnMonthly},
		{BtnExport},
		{BtnBack},
	}
}

func settingsMenuKeyboard() [][]string {
	return [][]string{
		{BtnManageCategories},
		{BtnClearLedger},
		{BtnBack},
	}
}

func confirmClearKeyboard() [][]string {
	return [][]string{
		{BtnYes, BtnNo},
	}
}

func currenciesMenuKeyboard() [][]string {
	return [][]string{
		{BtnAddCurrency, BtnDeleteCurrency},
		{BtnBack},
	}
}

func categoriesMenuKeyboard() [][]string {
	return [][]string{
		{BtnAddCategory, BtnDeleteCategory},
		{BtnBack},
	}
}

func backKeyboard() [][]string {
	return [][]string{{BtnBack}}
}

// pickKeyboard lists registry entries one per row, with a trailing back row.
func pickKeyboard(items []string) [][]string {
	rows := make([][]string, 0, len(items)+1)
	for _, item := range items {
		rows = append(rows, []string{item})
	}
	rows = append(rows, []string{BtnBack})
	return rows
}
