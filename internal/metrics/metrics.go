// Package metrics exposes prometheus collectors for the vault engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	depositsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_deposits_total",
			Help: "Number of confirmed deposits processed per risk tier",
		},
		[]string{"risk_level"},
	)

	depositedStroops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_deposited_stroops_total",
			Help: "Gross stroops deposited per risk tier",
		},
		[]string{"risk_level"},
	)

	insuranceStroops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_insurance_fee_stroops_total",
			Help: "Insurance fee stroops collected per risk tier",
		},
		[]string{"risk_level"},
	)

	sharePrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vault_share_price_stroops",
			Help: "Current share price in stroops per share unit",
		},
		[]string{"risk_level"},
	)

	totalValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vault_total_value_stroops",
			Help: "Net stroops attributed to the vault",
		},
		[]string{"risk_level"},
	)

	totalShares = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vault_total_shares",
			Help: "Shares outstanding per risk tier",
		},
		[]string{"risk_level"},
	)

	insurancePool = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_insurance_pool_stroops",
			Help: "Shared insurance pool balance in stroops",
		},
	)
)

// ObserveDeposit records one confirmed deposit.
func ObserveDeposit(riskLevel string, gross, fee uint64) {
	depositsTotal.WithLabelValues(riskLevel).Inc()
	depositedStroops.WithLabelValues(riskLevel).Add(float64(gross))
	insuranceStroops.WithLabelValues(riskLevel).Add(float64(fee))
}

// SetVaultState publishes the vault totals after a deposit.
func SetVaultState(riskLevel string, price, value, shares uint64) {
	sharePrice.WithLabelValues(riskLevel).Set(float64(price))
	totalValue.WithLabelValues(riskLevel).Set(float64(value))
	totalShares.WithLabelValues(riskLevel).Set(float64(shares))
}

// SetInsurancePool publishes the shared insurance pool balance.
func SetInsurancePool(v uint64) {
	insurancePool.Set(float64(v))
}
