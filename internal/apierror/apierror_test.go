package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:             http.StatusUnprocessableEntity,
		KindMissingCommissionRate:  http.StatusUnprocessableEntity,
		KindNoPayrollRecord:        http.StatusUnprocessableEntity,
		KindReferenceNotFound:      http.StatusNotFound,
		KindInsufficientInventory:  http.StatusConflict,
		KindInvalidStateTransition: http.StatusConflict,
		KindConcurrencyConflict:    http.StatusConflict,
		KindIntegrityViolation:     http.StatusInternalServerError,
		KindInternal:               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind), kind)
	}
}

func TestSentinelsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("submit order: %w", InsufficientInventory("items[0].quantity", "P-1", 5, 2))

	assert.True(t, errors.Is(err, ErrInsufficientInventory))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindInsufficientInventory, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestOnlyConflictsAreRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("tx: %w", Conflict("inventory_record", nil))))
	assert.False(t, IsRetryable(Validation("qty", "must be positive")))
	assert.False(t, IsRetryable(errors.New("connection reset")))
}

func TestEnvelope(t *testing.T) {
	status, body := Envelope(InvalidTransition("SHIPPED", "PENDING"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, KindInvalidStateTransition, body.Kind)
	assert.Equal(t, "order", body.Entity)
	assert.Equal(t, "status: cannot move order from SHIPPED to PENDING", body.Detail)
	assert.False(t, body.Retryable)

	status, body = Envelope(Conflict("payroll", errors.New("could not serialize access")))
	assert.Equal(t, http.StatusConflict, status)
	assert.True(t, body.Retryable)
	assert.NotContains(t, body.Detail, "serialize", "storage errors stay out of the body")

	status, body = Envelope(errors.New(`pq: relation "orders" does not exist`))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Detail)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "no_payroll_record", (&Error{Kind: KindNoPayrollRecord}).Error())
	err := NoPayrollRecord("E-1", "2026-01-01", "2026-01-31")
	assert.Equal(t, "pay_period: no payroll record for employee E-1 in period 2026-01-01..2026-01-31", err.Error())
}
