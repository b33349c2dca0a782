package service

import (
	"regexp"
	"strings"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/model"

	"github.com/shopspring/decimal"
)

// EmailPattern is the accepted shape of a customer email address.
var EmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

const unknownBand = "Unknown"

var incomeBands = []struct {
	below decimal.Decimal
	name  string
}{
	{decimal.NewFromInt(30000), "Low"},
	{decimal.NewFromInt(75000), "Medium"},
	{decimal.NewFromInt(150000), "High"},
}

// AgeGroup buckets a birth date into the reporting age bands as of asOf.
func AgeGroup(birth *time.Time, asOf time.Time) string {
	if birth == nil || birth.After(asOf) {
		return unknownBand
	}
	age := asOf.Year() - birth.Year()
	if asOf.YearDay() < birth.YearDay() {
		age--
	}
	switch {
	case age < 18:
		return "Under 18"
	case age < 25:
		return "18-24"
	case age < 35:
		return "25-34"
	case age < 45:
		return "35-44"
	case age < 55:
		return "45-54"
	case age < 65:
		return "55-64"
	default:
		return "65+"
	}
}

// IncomeCategory buckets annual income into Low/Medium/High/Very High.
func IncomeCategory(income *decimal.Decimal) string {
	if income == nil || income.IsNegative() {
		return unknownBand
	}
	for _, b := range incomeBands {
		if income.LessThan(b.below) {
			return b.name
		}
	}
	return "Very High"
}

func normalizePhone(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeNumber(n string) string { return strings.ToUpper(strings.TrimSpace(n)) }

// customerDim cleanses a source customer into a dimension row. Rows that cannot
// be cleansed are rejected with a validation error.
func customerDim(c model.Customer, asOf time.Time) (*model.CustomerDim, error) {
	name := strings.TrimSpace(c.DisplayName())
	if name == "" {
		return nil, apierror.Validation("customer_name", "customer %s has no name", c.CustomerNumber)
	}
	if c.CustomerType != model.CustomerIndividual && c.CustomerType != model.CustomerBusiness {
		return nil, apierror.Validation("customer_type", "customer %s has unknown type %q", c.CustomerNumber, c.CustomerType)
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email != "" && !EmailPattern.MatchString(email) {
		return nil, apierror.Validation("email", "customer %s has malformed email %q", c.CustomerNumber, c.Email)
	}
	income := decimal.Zero
	if c.AnnualIncome != nil {
		income = *c.AnnualIncome
	}
	return &model.CustomerDim{
		CustomerID:     c.ID,
		CustomerNumber: normalizeNumber(c.CustomerNumber),
		CustomerName:   name,
		CustomerType:   c.CustomerType,
		Email:          email,
		Phone:          normalizePhone(c.Phone),
		AgeGroup:       AgeGroup(c.BirthDate, asOf),
		IncomeCategory: IncomeCategory(c.AnnualIncome),
		AnnualIncome:   income,
		SegmentName:    c.SegmentName,
		City:           strings.TrimSpace(c.City),
		State:          strings.TrimSpace(c.State),
		Country:        strings.TrimSpace(c.Country),
		Status:         c.Status,
	}, nil
}

func productDim(p model.Product) (*model.ProductDim, error) {
	if !p.UnitPrice.IsPositive() {
		return nil, apierror.Validation("unit_price", "product %s has non-positive price %s", p.ProductNumber, p.UnitPrice.StringFixed(2))
	}
	if p.Cost.IsNegative() {
		return nil, apierror.Validation("cost", "product %s has negative cost %s", p.ProductNumber, p.Cost.StringFixed(2))
	}
	d := &model.ProductDim{
		ProductID:     p.ID,
		ProductNumber: normalizeNumber(p.ProductNumber),
		ProductName:   strings.TrimSpace(p.Name),
		UnitPrice:     p.UnitPrice,
		Cost:          p.Cost,
		Discontinued:  p.Discontinued,
		CategoryName:  unknownBand,
		SupplierName:  unknownBand,
	}
	if p.Category != nil {
		d.CategoryName = p.Category.Name
	}
	if p.Supplier != nil {
		d.SupplierName = p.Supplier.Name
	}
	return d, nil
}

func salesRepDim(r model.SalesRep) *model.SalesRepDim {
	d := &model.SalesRepDim{
		SalesRepID:     r.ID,
		EmployeeNumber: r.EmployeeNumber,
		SalesRepName:   r.FullName(),
		Email:          strings.ToLower(strings.TrimSpace(r.Email)),
		Status:         r.Status,
	}
	if r.CommissionRate != nil {
		d.CommissionRate = *r.CommissionRate
	}
	if r.Territory != nil {
		d.TerritoryName = r.Territory.Name
		d.Region = r.Territory.Region
	}
	return d
}
