package dto

import "github.com/shopspring/decimal"

type CommissionRunRequest struct {
	EmployeeID  string `json:"employee_id"  validate:"required,uuid"`
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end"   validate:"required,datetime=2006-01-02"`
}

type CommissionResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	PeriodStart      string          `json:"period_start"`
	PeriodEnd        string          `json:"period_end"`
	OrderCount       int             `json:"order_count"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
	NetPay           decimal.Decimal `json:"net_pay"`
	CalculatedAt     string          `json:"calculated_at"`
}
