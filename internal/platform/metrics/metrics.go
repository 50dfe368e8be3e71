// Package metrics exposes distributor and ledger outcomes as Prometheus
// series.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
)

// Amounts are exported in whole tokens (18 decimals).
var tokenUnit = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

type Recorder struct {
	registry *prometheus.Registry

	distributions   *prometheus.CounterVec
	distributed     *prometheus.CounterVec
	migrations      prometheus.Counter
	migratedLegacy  prometheus.Counter
	migrationPayout prometheus.Counter
	reserve         prometheus.Gauge
	rejections      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "fee_distributions_total",
			Help:      "Per-token fee distribution passes.",
		}, []string{"token"}),
		distributed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "fees_distributed_tokens_total",
			Help:      "Tokens paid to each beneficiary role.",
		}, []string{"token", "beneficiary"}),
		migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "migrations_total",
			Help:      "Completed legacy token migrations.",
		}),
		migratedLegacy: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "migrated_legacy_tokens_total",
			Help:      "Legacy tokens taken into custody by migrations.",
		}),
		migrationPayout: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "migration_payout_tokens_total",
			Help:      "New tokens paid out of the migration reserve.",
		}),
		reserve: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hmn",
			Name:      "migration_reserve_tokens",
			Help:      "Current migration reserve balance.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hmn",
			Name:      "transfer_rejections_total",
			Help:      "Ledger transfers rejected by rule.",
		}, []string{"token", "reason"}),
	}
	r.registry.MustRegister(
		r.distributions,
		r.distributed,
		r.migrations,
		r.migratedLegacy,
		r.migrationPayout,
		r.reserve,
		r.rejections,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveDistribution(distribution entities.Distribution) {
	token := distribution.Token.Hex()
	r.distributions.WithLabelValues(token).Inc()
	r.distributed.WithLabelValues(token, "swap_trigger").Add(tokens(distribution.SwapTriggerShare))
	r.distributed.WithLabelValues(token, "purchase_tax").Add(tokens(distribution.PurchaseTaxShare))
	r.distributed.WithLabelValues(token, "sales_tax").Add(tokens(distribution.SalesTaxShare))
}

func (r *Recorder) ObserveMigration(migration entities.Migration) {
	r.migrations.Inc()
	r.migratedLegacy.Add(tokens(migration.Amount))
	r.migrationPayout.Add(tokens(migration.Payout))
}

func (r *Recorder) SetReserveBalance(balance *uint256.Int) {
	r.reserve.Set(tokens(balance))
}

func (r *Recorder) TransferRejected(token common.Address, reason string) {
	r.rejections.WithLabelValues(token.Hex(), reason).Inc()
}

func tokens(amount *uint256.Int) float64 {
	if amount == nil {
		return 0
	}
	value := new(big.Float).SetInt(amount.ToBig())
	out, _ := value.Quo(value, tokenUnit).Float64()
	return out
}
