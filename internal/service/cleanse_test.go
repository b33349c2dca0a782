package service

import (
	"errors"
	"testing"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/model"
	"retailworks/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeGroup(t *testing.T) {
	asOf := day(2026, time.June, 15)
	born := func(y int, m time.Month, d int) *time.Time { b := day(y, m, d); return &b }

	cases := []struct {
		birth *time.Time
		want  string
	}{
		{nil, "Unknown"},
		{born(2027, time.January, 1), "Unknown"},
		{born(2008, time.June, 16), "Under 18"},
		{born(2008, time.June, 14), "18-24"},
		{born(1996, time.January, 1), "25-34"},
		{born(1986, time.December, 31), "35-44"},
		{born(1972, time.March, 3), "45-54"},
		{born(1962, time.June, 1), "55-64"},
		{born(1961, time.June, 1), "65+"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AgeGroup(c.birth, asOf), "%v", c.birth)
	}
}

func TestIncomeCategory(t *testing.T) {
	dec := func(s string) *decimal.Decimal { d := testutil.Dec(s); return &d }

	assert.Equal(t, "Unknown", IncomeCategory(nil))
	assert.Equal(t, "Unknown", IncomeCategory(dec("-1")))
	assert.Equal(t, "Low", IncomeCategory(dec("29999.99")))
	assert.Equal(t, "Medium", IncomeCategory(dec("30000")))
	assert.Equal(t, "High", IncomeCategory(dec("75000")))
	assert.Equal(t, "Very High", IncomeCategory(dec("150000")))
}

func TestCustomerDimCleansing(t *testing.T) {
	asOf := day(2026, time.June, 15)
	c := model.Customer{
		CustomerNumber: " c-9 ",
		CustomerType:   model.CustomerBusiness,
		CompanyName:    "Birch & Co",
		FirstName:      "Ignored",
		Email:          " Orders@Birch.example ",
		Phone:          "+1 (503) 555-0199",
		City:           " Salem ",
		Status:         model.StatusActive,
	}

	d, err := customerDim(c, asOf)
	require.NoError(t, err)
	assert.Equal(t, "C-9", d.CustomerNumber)
	assert.Equal(t, "Birch & Co", d.CustomerName)
	assert.Equal(t, "orders@birch.example", d.Email)
	assert.Equal(t, "15035550199", d.Phone)
	assert.Equal(t, "Salem", d.City)
	assert.Equal(t, "Unknown", d.AgeGroup)
	assert.Equal(t, "Unknown", d.IncomeCategory)

	c.Email = "not-an-email"
	_, err = customerDim(c, asOf)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	_, err = customerDim(model.Customer{CustomerNumber: "C-10", CustomerType: model.CustomerIndividual}, asOf)
	assert.True(t, errors.Is(err, apierror.ErrValidation), "nameless customers are rejected")

	_, err = customerDim(model.Customer{CustomerNumber: "C-11", FirstName: "Kit", CustomerType: "RESELLER"}, asOf)
	assert.True(t, errors.Is(err, apierror.ErrValidation), "unknown customer types are rejected")
}

func TestProductDimDefaults(t *testing.T) {
	d, err := productDim(model.Product{ProductNumber: " p-1 ", Name: "Tarp", UnitPrice: testutil.Dec("4.50"), Cost: testutil.Dec("2")})
	require.NoError(t, err)
	assert.Equal(t, "P-1", d.ProductNumber)
	assert.Equal(t, "Unknown", d.CategoryName)
	assert.Equal(t, "Unknown", d.SupplierName)

	for _, bad := range []model.Product{
		{ProductNumber: "P-2", Name: "Free", UnitPrice: testutil.Dec("0"), Cost: testutil.Dec("1")},
		{ProductNumber: "P-3", Name: "Lossy", UnitPrice: testutil.Dec("5"), Cost: testutil.Dec("-1")},
	} {
		_, err = productDim(bad)
		assert.True(t, errors.Is(err, apierror.ErrValidation), bad.ProductNumber)
	}
}
