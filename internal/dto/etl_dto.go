package dto

import "github.com/shopspring/decimal"

// DateRangeRequest is shared by calendar generation and ETL triggers.
type DateRangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"required,datetime=2006-01-02"`
}

type CalendarResponse struct {
	RowsGenerated  int `json:"rows_generated"`
	HolidaysMarked int `json:"holidays_marked"`
}

type DimensionSyncResult struct {
	Dimension string `json:"dimension"`
	Processed int    `json:"processed"`
	Inserted  int    `json:"inserted"`
	Versioned int    `json:"versioned"`
	Unchanged int    `json:"unchanged"`
	Rejected  int    `json:"rejected"`
}

type FactLoadResult struct {
	BatchID            string `json:"batch_id"`
	SalesFacts         int    `json:"sales_facts"`
	CustomerAnalytics  int    `json:"customer_analytics_facts"`
	ProductPerformance int    `json:"product_performance_facts"`
	Skipped            int    `json:"skipped"`
}

// Total counts every fact row written by the load.
func (r FactLoadResult) Total() int {
	return r.SalesFacts + r.CustomerAnalytics + r.ProductPerformance
}

type EtlRunResponse struct {
	BatchID     string                `json:"batch_id"`
	Status      string                `json:"status"`
	Dimensions  []DimensionSyncResult `json:"dimensions"`
	Facts       FactLoadResult        `json:"facts"`
	FactsLoaded int                   `json:"facts_loaded"`
	IssuesFound int                   `json:"issues_found"`
}

type EtlRunLogResponse struct {
	BatchID          string  `json:"batch_id"`
	ProcessName      string  `json:"process_name"`
	Status           string  `json:"status"`
	RangeStart       *string `json:"range_start,omitempty"`
	RangeEnd         *string `json:"range_end,omitempty"`
	RecordsProcessed int     `json:"records_processed"`
	RecordsInserted  int     `json:"records_inserted"`
	RecordsUpdated   int     `json:"records_updated"`
	RecordsRejected  int     `json:"records_rejected"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	StartedAt        string  `json:"started_at"`
	FinishedAt       *string `json:"finished_at,omitempty"`
}

// DateQuery is bound from the query string of warehouse read endpoints.
type DateQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

type DateDimResponse struct {
	DateKey       int     `json:"date_key"`
	Date          string  `json:"date"`
	DayOfWeek     int     `json:"day_of_week"`
	DayOfWeekName string  `json:"day_of_week_name"`
	ISOWeek       int     `json:"iso_week"`
	MonthName     string  `json:"month_name"`
	QuarterName   string  `json:"quarter_name"`
	FiscalYear    int     `json:"fiscal_year"`
	FiscalQuarter int     `json:"fiscal_quarter"`
	Season        string  `json:"season"`
	IsWeekend     bool    `json:"is_weekend"`
	IsHoliday     bool    `json:"is_holiday"`
	HolidayName   *string `json:"holiday_name,omitempty"`
}

type SalesFactResponse struct {
	OrderNumber  string          `json:"order_number"`
	OrderItemID  string          `json:"order_item_id"`
	OrderDateKey int             `json:"order_date_key"`
	ShipDateKey  *int            `json:"ship_date_key,omitempty"`
	CustomerKey  int64           `json:"customer_key"`
	ProductKey   int64           `json:"product_key"`
	SalesRepKey  int64           `json:"sales_rep_key"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CostAmount   decimal.Decimal `json:"cost_amount"`
	Profit       decimal.Decimal `json:"profit"`
	LoadBatchID  string          `json:"load_batch_id"`
}
