package service

import "general-ledger/internal/models"

// ChartSeed describes one default chart-of-accounts entry.
type ChartSeed struct {
	Code             string
	Name             string
	Description      string
	Type             models.AccountType
	IsSystem         bool
	IsCash           bool
	CashFlowActivity models.CashFlowActivity
}

// DefaultChart returns the default chart of accounts for a new entity.
// System accounts cannot be deactivated or posted to directly.
func DefaultChart() []ChartSeed {
	return []ChartSeed{
		// Assets (1xxx)
		{Code: "1000", Name: "Cash", Type: models.AccountTypeAsset, IsCash: true, Description: "Cash on hand and in banks"},
		{Code: "1100", Name: "Accounts Receivable", Type: models.AccountTypeAsset, CashFlowActivity: models.ActivityOperating, Description: "Amounts owed by customers"},
		{Code: "1200", Name: "Prepaid Expenses", Type: models.AccountTypeAsset, CashFlowActivity: models.ActivityOperating, Description: "Payments made in advance"},
		{Code: "1500", Name: "Equipment", Type: models.AccountTypeAsset, CashFlowActivity: models.ActivityInvesting, Description: "Long-term tangible assets"},

		// Liabilities (2xxx)
		{Code: "2000", Name: "Accounts Payable", Type: models.AccountTypeLiability, CashFlowActivity: models.ActivityOperating, Description: "Amounts owed to suppliers"},
		{Code: "2100", Name: "Accrued Expenses", Type: models.AccountTypeLiability, CashFlowActivity: models.ActivityOperating, Description: "Expenses incurred but not yet paid"},
		{Code: "2500", Name: "Loans Payable", Type: models.AccountTypeLiability, CashFlowActivity: models.ActivityFinancing, Description: "Outstanding loan obligations"},

		// Equity (3xxx)
		{Code: "3000", Name: "Owner's Capital", Type: models.AccountTypeEquity, CashFlowActivity: models.ActivityFinancing, Description: "Owner contributions and withdrawals"},
		{Code: "3900", Name: "Retained Earnings", Type: models.AccountTypeEquity, IsSystem: true, Description: "Accumulated profits retained in the entity"},

		// Revenue (4xxx)
		{Code: "4000", Name: "Service Revenue", Type: models.AccountTypeRevenue, CashFlowActivity: models.ActivityOperating, Description: "Income from services rendered"},
		{Code: "4100", Name: "Product Revenue", Type: models.AccountTypeRevenue, CashFlowActivity: models.ActivityOperating, Description: "Income from product sales"},

		// Expenses (5xxx)
		{Code: "5000", Name: "Operating Expenses", Type: models.AccountTypeExpense, CashFlowActivity: models.ActivityOperating, Description: "General operating costs"},
		{Code: "5100", Name: "Salaries and Wages", Type: models.AccountTypeExpense, CashFlowActivity: models.ActivityOperating, Description: "Employee compensation"},
		{Code: "5200", Name: "Professional Services", Type: models.AccountTypeExpense, CashFlowActivity: models.ActivityOperating, Description: "Legal, accounting, consulting"},
	}
}
