package model

// All lists every persisted model in creation order.
func All() []any {
	return []any{
		&Category{}, &Supplier{}, &Territory{}, &Customer{}, &Product{}, &SalesRep{}, &Payroll{},
		&Order{}, &OrderItem{}, &InventoryRecord{}, &InventoryMovement{}, &CommissionRecord{},
		&DateDim{}, &CustomerDim{}, &ProductDim{}, &SalesRepDim{},
		&SalesFact{}, &CustomerAnalyticsFact{}, &ProductPerformanceFact{},
		&DataQualityIssue{}, &EtlRun{},
	}
}
