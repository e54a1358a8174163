package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "invalid", Result(apperrors.ValidationError("x")))
	assert.Equal(t, "not_found", Result(apperrors.NotFound("Client")))
	assert.Equal(t, "conflict", Result(apperrors.Conflict("x")))
	assert.Equal(t, "denied", Result(apperrors.InvalidCredentials()))
	assert.Equal(t, "rate_limited", Result(apperrors.RateLimitExceeded()))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestObserveClientOp(t *testing.T) {
	before := testutil.ToFloat64(ClientOperationsTotal.WithLabelValues("create", "conflict"))
	ObserveClientOp("create", apperrors.Conflict("Username already exists"))
	after := testutil.ToFloat64(ClientOperationsTotal.WithLabelValues("create", "conflict"))
	assert.Equal(t, before+1, after)
}
