// Package metrics exposes Prometheus collectors for fund activity.
package metrics

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// FundMetrics groups the collectors a fund reports to. A nil *FundMetrics is
// valid and records nothing.
type FundMetrics struct {
	calls                *prometheus.CounterVec
	fundingAmount        prometheus.Gauge
	dividendsIssued      prometheus.Counter
	dividendAmount       prometheus.Counter
	claims               prometheus.Counter
	claimedAmount        prometheus.Counter
	distributionFailures prometheus.Counter
	gatewayRejections    prometheus.Counter
}

// NewFundMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewFundMetrics(reg prometheus.Registerer) *FundMetrics {
	m := &FundMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fund_calls_total",
			Help: "Fund entry point invocations by operation and outcome.",
		}, []string{"op", "outcome"}),
		fundingAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fund_funding_amount",
			Help: "Cumulative consideration received toward the funding goal.",
		}),
		dividendsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_dividends_issued_total",
			Help: "Number of dividend events appended to the history.",
		}),
		dividendAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_dividend_amount_total",
			Help: "Sum of issued dividend amounts.",
		}),
		claims: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_dividend_claims_total",
			Help: "Number of non-zero dividend settlements paid out.",
		}),
		claimedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_dividend_claimed_amount_total",
			Help: "Sum of dividend amounts paid out.",
		}),
		distributionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_distribution_failures_total",
			Help: "Payouts the gateway reported as failed.",
		}),
		gatewayRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fund_gateway_rejections_total",
			Help: "Distribute calls rejected by a payout gateway because the caller was not its fund.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.calls,
			m.fundingAmount,
			m.dividendsIssued,
			m.dividendAmount,
			m.claims,
			m.claimedAmount,
			m.distributionFailures,
			m.gatewayRejections,
		)
	}
	return m
}

// ObserveCall counts one entry point invocation.
func (m *FundMetrics) ObserveCall(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(op, outcome).Inc()
}

// SetFundingAmount records the cumulative funding.
func (m *FundMetrics) SetFundingAmount(amount *uint256.Int) {
	if m == nil {
		return
	}
	m.fundingAmount.Set(toFloat(amount))
}

// ObserveDividendIssued records a new dividend event.
func (m *FundMetrics) ObserveDividendIssued(amount *uint256.Int) {
	if m == nil {
		return
	}
	m.dividendsIssued.Inc()
	m.dividendAmount.Add(toFloat(amount))
}

// ObserveClaim records a paid settlement.
func (m *FundMetrics) ObserveClaim(amount *uint256.Int) {
	if m == nil {
		return
	}
	m.claims.Inc()
	m.claimedAmount.Add(toFloat(amount))
}

// ObserveDistributionFailure records a payout the gateway failed.
func (m *FundMetrics) ObserveDistributionFailure() {
	if m == nil {
		return
	}
	m.distributionFailures.Inc()
}

// ObserveGatewayRejection records a distribute call from an unauthorized caller.
func (m *FundMetrics) ObserveGatewayRejection() {
	if m == nil {
		return
	}
	m.gatewayRejections.Inc()
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
