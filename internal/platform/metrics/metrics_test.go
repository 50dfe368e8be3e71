package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"humanity/contexts/finance-core/migrator-distributor/domain/entities"
)

func wholeTokens(n uint64) *uint256.Int {
	unit := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), unit)
}

func scrape(t *testing.T, recorder *Recorder) string {
	t.Helper()
	rr := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestRecorderTracksMigrationsInWholeTokens(t *testing.T) {
	recorder := NewRecorder()
	recorder.SetReserveBalance(wholeTokens(9))
	recorder.ObserveMigration(entities.Migration{Amount: wholeTokens(10_000), Payout: wholeTokens(9)})

	body := scrape(t, recorder)
	require.Contains(t, body, "hmn_migration_reserve_tokens 9\n")
	require.Contains(t, body, "hmn_migrations_total 1\n")
	require.Contains(t, body, "hmn_migrated_legacy_tokens_total 10000\n")
	require.Contains(t, body, "hmn_migration_payout_tokens_total 9\n")
}

func TestRecorderLabelsDistributionsAndRejections(t *testing.T) {
	recorder := NewRecorder()
	token := common.HexToAddress("0xa1")
	recorder.TransferRejected(token, "HMN01")
	recorder.ObserveDistribution(entities.Distribution{
		Token:            token,
		SwapTriggerShare: wholeTokens(5),
		PurchaseTaxShare: wholeTokens(3),
		SalesTaxShare:    wholeTokens(2),
	})

	body := scrape(t, recorder)
	require.Contains(t, body, `hmn_transfer_rejections_total{reason="HMN01",token="`+token.Hex()+`"} 1`)
	require.Contains(t, body, `hmn_fees_distributed_tokens_total{beneficiary="swap_trigger",token="`+token.Hex()+`"} 5`)
	require.Contains(t, body, `hmn_fee_distributions_total{token="`+token.Hex()+`"} 1`)
}

func TestTokensHandlesNil(t *testing.T) {
	require.Zero(t, tokens(nil))
}
