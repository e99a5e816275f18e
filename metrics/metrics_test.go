package metrics

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFundMetrics(reg)

	m.ObserveCall("transfer", nil)
	m.ObserveCall("transfer", errors.New("x"))
	m.ObserveCall("transfer", nil)
	m.SetFundingAmount(uint256.NewInt(500))
	m.ObserveDividendIssued(uint256.NewInt(40))
	m.ObserveClaim(uint256.NewInt(10))
	m.ObserveClaim(uint256.NewInt(5))
	m.ObserveDistributionFailure()
	m.ObserveGatewayRejection()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("transfer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("transfer", "error")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.fundingAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dividendsIssued))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.dividendAmount))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.claims))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.claimedAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.distributionFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRejections))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestFundMetrics_NilSafe(t *testing.T) {
	var m *FundMetrics
	assert.NotPanics(t, func() {
		m.ObserveCall("claim", nil)
		m.SetFundingAmount(uint256.NewInt(1))
		m.ObserveDividendIssued(uint256.NewInt(1))
		m.ObserveClaim(nil)
		m.ObserveDistributionFailure()
		m.ObserveGatewayRejection()
	})
}
