package engine

// State identifies where a conversation currently is. Transitions are decided
// exclusively by Engine.Handle; every state reaches the main menu through
// "back" inputs, and the entry command resets to MainMenu from anywhere.
type State int

const (
	StateMainMenu State = iota
	StateAddMenu
	StateChoosingCategory
	StateChoosingCurrency
	StateTypingAmount
	StateHistoryMenu
	StateTypingDate
	StateStatsMenu
	StateSettingsMenu
	StateConfirmClear
	StateChooseDelete
	StateChooseEdit
	StateEditAmount
	StateCurrencyMenu
	StateAddCurrency
	StateDeleteCurrency
	StateCategoryMenu
	StateAddCategory
	StateDeleteCategory
)

var stateNames = map[State]string{
	StateMainMenu:         "main_menu",
	StateAddMenu:          "add_menu",
	StateChoosingCategory: "choosing_category",
	StateChoosingCurrency: "choosing_currency",
	StateTypingAmount:     "typing_amount",
	StateHistoryMenu:      "history_menu",
	StateTypingDate:       "typing_date",
	StateStatsMenu:        "stats_menu",
	StateSettingsMenu:     "settings_menu",
	StateConfirmClear:     "confirm_clear",
	StateChooseDelete:     "choose_delete",
	StateChooseEdit:       "choose_edit",
	StateEditAmount:       "edit_amount",
	StateCurrencyMenu:     "currency_menu",
	StateAddCurrency:      "add_currency",
	StateDeleteCurrency:   "delete_currency",
	StateCategoryMenu:     "category_menu",
	StateAddCategory:      "add_category",
	StateDeleteCategory:   "delete_category",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
