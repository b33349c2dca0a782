package service

import (
	"context"
	"fmt"
	"time"

	"retailworks/internal/model"
	"retailworks/internal/repository"

	"gorm.io/gorm"
)

const (
	IssueDuplicateKey    = "DUPLICATE_KEY"
	IssueOrphanReference = "ORPHAN_REFERENCE"
	IssueEmptyOrder      = "EMPTY_ORDER"
	IssueTotalMismatch   = "TOTAL_MISMATCH"
	IssueNegativeStock   = "NEGATIVE_INVENTORY"
	IssueInventoryDrift  = "INVENTORY_DRIFT"
	IssueInvalidPrice    = "INVALID_PRICE"
	IssueInvalidFormat   = "INVALID_FORMAT"
	IssueOutOfRange      = "OUT_OF_RANGE"
	IssueCurrentVersion  = "SCD_CURRENT_VERSION"
)

// finding is one offending record detected by a check.
type finding struct {
	table       string
	column      string
	issueType   string
	severity    string
	recordRef   string
	description string
}

type qualityCheck struct {
	name string
	run  func(ctx context.Context, tx *gorm.DB) ([]finding, error)
}

// sqlCheck builds a check from a detection query aliasing record_ref and detail.
// describe receives both columns.
func sqlCheck(repo repository.QualityRepository, name, table, column, issueType, severity, query string, describe func(ref, detail string) string) qualityCheck {
	return qualityCheck{
		name: name,
		run: func(ctx context.Context, tx *gorm.DB) ([]finding, error) {
			rows, err := repo.RunCheckTx(ctx, tx, query)
			if err != nil {
				return nil, err
			}
			out := make([]finding, 0, len(rows))
			for _, r := range rows {
				out = append(out, finding{
					table:       table,
					column:      column,
					issueType:   issueType,
					severity:    severity,
					recordRef:   r.RecordRef,
					description: describe(r.RecordRef, r.Detail),
				})
			}
			return out, nil
		},
	}
}

func currentVersionQuery(table, column string) string {
	return fmt.Sprintf(`SELECT CAST(%[2]s AS TEXT) AS record_ref,
		CAST(SUM(CASE WHEN is_current THEN 1 ELSE 0 END) AS TEXT) AS detail
		FROM %[1]s GROUP BY %[2]s
		HAVING SUM(CASE WHEN is_current THEN 1 ELSE 0 END) <> 1`, table, column)
}

func (s *qualityService) checks() []qualityCheck {
	r := s.repo
	return []qualityCheck{
		sqlCheck(r, "duplicate customer email", "customers", "email", IssueDuplicateKey, model.SeverityMedium,
			`SELECT LOWER(email) AS record_ref, CAST(COUNT(*) AS TEXT) AS detail
			 FROM customers WHERE email IS NOT NULL AND email <> ''
			 GROUP BY LOWER(email) HAVING COUNT(*) > 1`,
			func(ref, n string) string { return fmt.Sprintf("email %s is shared by %s customers", ref, n) }),
		sqlCheck(r, "duplicate customer number", "customers", "customer_number", IssueDuplicateKey, model.SeverityHigh,
			`SELECT customer_number AS record_ref, CAST(COUNT(*) AS TEXT) AS detail
			 FROM customers GROUP BY customer_number HAVING COUNT(*) > 1`,
			func(ref, n string) string { return fmt.Sprintf("customer number %s is used by %s customers", ref, n) }),
		sqlCheck(r, "duplicate product number", "products", "product_number", IssueDuplicateKey, model.SeverityHigh,
			`SELECT product_number AS record_ref, CAST(COUNT(*) AS TEXT) AS detail
			 FROM products GROUP BY product_number HAVING COUNT(*) > 1`,
			func(ref, n string) string { return fmt.Sprintf("product number %s is used by %s products", ref, n) }),
		sqlCheck(r, "product without category", "products", "category_id", IssueOrphanReference, model.SeverityHigh,
			`SELECT p.product_number AS record_ref, COALESCE(CAST(p.category_id AS TEXT), 'null') AS detail
			 FROM products p LEFT JOIN categories c ON c.id = p.category_id
			 WHERE c.id IS NULL`,
			func(ref, cat string) string {
				return fmt.Sprintf("product %s references missing category %s", ref, cat)
			}),
		sqlCheck(r, "product without supplier", "products", "supplier_id", IssueOrphanReference, model.SeverityMedium,
			`SELECT p.product_number AS record_ref, CAST(p.supplier_id AS TEXT) AS detail
			 FROM products p LEFT JOIN suppliers s ON s.id = p.supplier_id
			 WHERE p.supplier_id IS NOT NULL AND s.id IS NULL`,
			func(ref, sup string) string {
				return fmt.Sprintf("product %s references missing supplier %s", ref, sup)
			}),
		sqlCheck(r, "order without customer", "orders", "customer_id", IssueOrphanReference, model.SeverityCritical,
			`SELECT o.order_number AS record_ref, CAST(o.customer_id AS TEXT) AS detail
			 FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
			 WHERE c.id IS NULL`,
			func(ref, cust string) string {
				return fmt.Sprintf("order %s references missing customer %s", ref, cust)
			}),
		sqlCheck(r, "order without items", "orders", "id", IssueEmptyOrder, model.SeverityHigh,
			`SELECT o.order_number AS record_ref, o.status AS detail FROM orders o
			 WHERE NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id)`,
			func(ref, status string) string { return fmt.Sprintf("%s order %s has no items", status, ref) }),
		sqlCheck(r, "order total mismatch", "orders", "total_amount", IssueTotalMismatch, model.SeverityCritical,
			`SELECT o.order_number AS record_ref, CAST(o.total_amount AS TEXT) AS detail FROM orders o
			 WHERE ABS(o.total_amount - (o.subtotal + o.tax_amount + o.freight)) > 0.005
			    OR ABS(o.subtotal - (SELECT COALESCE(SUM(i.line_total), 0) FROM order_items i WHERE i.order_id = o.id)) > 0.005`,
			func(ref, total string) string {
				return fmt.Sprintf("order %s total %s does not match its lines, tax and freight", ref, total)
			}),
		sqlCheck(r, "negative inventory", "inventory_records", "quantity_on_hand", IssueNegativeStock, model.SeverityCritical,
			`SELECT CAST(product_id AS TEXT) || '@' || location_code AS record_ref,
			        CAST(quantity_on_hand AS TEXT) || '/' || CAST(quantity_allocated AS TEXT) AS detail
			 FROM inventory_records
			 WHERE quantity_on_hand < 0 OR quantity_allocated < 0 OR quantity_available < 0`,
			func(ref, q string) string {
				return fmt.Sprintf("inventory %s has negative quantities (on-hand/allocated %s)", ref, q)
			}),
		sqlCheck(r, "inventory availability drift", "inventory_records", "quantity_available", IssueInventoryDrift, model.SeverityHigh,
			`SELECT CAST(product_id AS TEXT) || '@' || location_code AS record_ref,
			        CAST(quantity_available AS TEXT) AS detail
			 FROM inventory_records
			 WHERE quantity_available <> quantity_on_hand - quantity_allocated`,
			func(ref, avail string) string {
				return fmt.Sprintf("inventory %s available %s differs from on-hand minus allocated", ref, avail)
			}),
		sqlCheck(r, "non-positive price", "products", "unit_price", IssueInvalidPrice, model.SeverityHigh,
			`SELECT product_number AS record_ref, CAST(unit_price AS TEXT) AS detail
			 FROM products WHERE unit_price <= 0 OR cost < 0`,
			func(ref, price string) string {
				return fmt.Sprintf("product %s has invalid price %s or negative cost", ref, price)
			}),
		sqlCheck(r, "customer current version", "customer_dims", "is_current", IssueCurrentVersion, model.SeverityCritical,
			currentVersionQuery("customer_dims", "customer_id"), currentVersionDescription),
		sqlCheck(r, "product current version", "product_dims", "is_current", IssueCurrentVersion, model.SeverityCritical,
			currentVersionQuery("product_dims", "product_id"), currentVersionDescription),
		sqlCheck(r, "sales rep current version", "sales_rep_dims", "is_current", IssueCurrentVersion, model.SeverityCritical,
			currentVersionQuery("sales_rep_dims", "sales_rep_id"), currentVersionDescription),
		{name: "customer attributes", run: s.customerAttributeCheck},
	}
}

func currentVersionDescription(ref, n string) string {
	return fmt.Sprintf("natural key %s has %s current versions, expected exactly 1", ref, n)
}

var earliestBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// customerAttributeCheck validates formats and ranges that SQL cannot express portably.
func (s *qualityService) customerAttributeCheck(ctx context.Context, tx *gorm.DB) ([]finding, error) {
	var customers []model.Customer
	if err := tx.WithContext(ctx).Order("customer_number ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	now := clock()
	var out []finding
	for _, c := range customers {
		if c.Email != "" && !EmailPattern.MatchString(c.Email) {
			out = append(out, finding{
				table: "customers", column: "email", issueType: IssueInvalidFormat, severity: model.SeverityLow,
				recordRef:   c.CustomerNumber,
				description: fmt.Sprintf("customer %s has malformed email %q", c.CustomerNumber, c.Email),
			})
		}
		if c.BirthDate != nil && (c.BirthDate.Before(earliestBirthDate) || c.BirthDate.After(now)) {
			out = append(out, finding{
				table: "customers", column: "birth_date", issueType: IssueOutOfRange, severity: model.SeverityMedium,
				recordRef:   c.CustomerNumber,
				description: fmt.Sprintf("customer %s has implausible birth date %s", c.CustomerNumber, c.BirthDate.Format(time.DateOnly)),
			})
		}
		if c.RegistrationDate.After(now) {
			out = append(out, finding{
				table: "customers", column: "registration_date", issueType: IssueOutOfRange, severity: model.SeverityMedium,
				recordRef:   c.CustomerNumber,
				description: fmt.Sprintf("customer %s registers in the future on %s", c.CustomerNumber, c.RegistrationDate.Format(time.DateOnly)),
			})
		}
	}
	return out, nil
}
