package domain

// User identifies one of the two budget owners taking part in the split.
// The account fields point at the shared split account inside that user's
// own budget.
type User struct {
	Name                 string `json:"name"`
	BudgetID             string `json:"budgetID"`
	SplitAccountID       string `json:"splitAccountID"`
	SplitTransferPayeeID string `json:"splitTransferPayeeID"`
}

// Category is a budget category reference carried on entries and charges.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
