package reconcile

import (
	"testing"
	"time"

	"github.com/StayBridge/StayBridge-Backend/client/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id, ref, txType string, amount int64, created time.Time) cache.CachedTransaction {
	return cache.CachedTransaction{
		ID:        id,
		Type:      txType,
		Status:    "COMPLETED",
		Amount:    amount,
		Currency:  "EUR",
		Reference: ref,
		CreatedAt: created,
	}
}

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestMergeMatchesByReferenceFirst(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "DEPOSIT", 1_000, baseTime),
	}
	local := []cache.CachedTransaction{
		// Different ID, same reference: must collapse into one entry.
		tx("local-1", "REF-1", "DEPOSIT", 1_000, baseTime),
	}

	merged := Merge(server, local)
	require.Len(t, merged, 1)
	assert.Equal(t, "srv-1", merged[0].ID, "server fields win on a match")
	assert.Equal(t, cache.SyncSynced, merged[0].SyncState)
}

func TestMergeFallsBackToProviderReferenceAndID(t *testing.T) {
	server := []cache.CachedTransaction{
		{ID: "srv-1", Type: "DEPOSIT", Amount: 500, ProviderReference: "ps_123", CreatedAt: baseTime},
	}
	local := []cache.CachedTransaction{
		{ID: "local-1", Type: "DEPOSIT", Amount: 500, ProviderReference: "ps_123", CreatedAt: baseTime.Add(time.Minute)},
	}

	merged := Merge(server, local)
	require.Len(t, merged, 1)
	assert.Equal(t, "srv-1", merged[0].ID)
}

func TestMergeCompositeFallback(t *testing.T) {
	// No reference, no provider reference, no shared ID: the type,
	// amount and timestamp composite still identifies the pair.
	server := []cache.CachedTransaction{
		{ID: "srv-1", Type: "WITHDRAWAL", Amount: -400, CreatedAt: baseTime},
	}
	local := []cache.CachedTransaction{
		{Type: "WITHDRAWAL", Amount: -400, CreatedAt: baseTime},
	}

	merged := Merge(server, local)
	assert.Len(t, merged, 1)
}

func TestMergePreservesSenderName(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "TRANSFER_IN", 2_000, baseTime),
	}
	local := []cache.CachedTransaction{
		func() cache.CachedTransaction {
			e := tx("local-1", "REF-1", "TRANSFER_IN", 2_000, baseTime)
			e.SenderName = "Maria from upstairs"
			return e
		}(),
	}

	merged := Merge(server, local)
	require.Len(t, merged, 1)
	assert.Equal(t, "Maria from upstairs", merged[0].SenderName)
	assert.Equal(t, "srv-1", merged[0].ID)
}

func TestMergeFlagsAmountDivergence(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "DEPOSIT", 1_000, baseTime),
	}
	local := []cache.CachedTransaction{
		tx("local-1", "REF-1", "DEPOSIT", 900, baseTime),
	}

	merged := Merge(server, local)
	require.Len(t, merged, 1)
	assert.Equal(t, int64(1_000), merged[0].Amount, "server amount is kept")
	assert.Equal(t, cache.SyncConflict, merged[0].SyncState)
}

func TestMergeKeepsUnmatchedLocalAsLocalOnly(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "DEPOSIT", 1_000, baseTime),
	}
	local := []cache.CachedTransaction{
		tx("", "LOCAL-REF", "WITHDRAWAL", -200, baseTime.Add(time.Hour)),
	}

	merged := Merge(server, local)
	require.Len(t, merged, 2)

	var localOnly *cache.CachedTransaction
	for i := range merged {
		if merged[i].Reference == "LOCAL-REF" {
			localOnly = &merged[i]
		}
	}
	require.NotNil(t, localOnly)
	assert.Equal(t, cache.SyncLocalOnly, localOnly.SyncState)
}

func TestMergeDeduplicatesServerSide(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "DEPOSIT", 1_000, baseTime),
		tx("srv-2", "REF-1", "DEPOSIT", 1_000, baseTime),
	}

	merged := Merge(server, nil)
	assert.Len(t, merged, 1)
}

func TestMergeIsIdempotent(t *testing.T) {
	server := []cache.CachedTransaction{
		tx("srv-1", "REF-1", "DEPOSIT", 1_000, baseTime),
		tx("srv-2", "REF-2", "WITHDRAWAL", -400, baseTime.Add(time.Minute)),
	}
	local := []cache.CachedTransaction{
		tx("", "LOCAL-REF", "TRANSFER_OUT", -50, baseTime.Add(2*time.Minute)),
	}

	once := Merge(server, local)
	twice := Merge(server, once)
	assert.Equal(t, len(once), len(twice), "re-merging the merged view must not grow it")
	assert.Equal(t, CalculateBalance(once), CalculateBalance(twice))
}

func TestCalculateBalance(t *testing.T) {
	entries := []cache.CachedTransaction{
		tx("1", "R1", "DEPOSIT", 1_000, baseTime),
		tx("2", "R2", "WITHDRAWAL", -400, baseTime),
	}
	assert.Equal(t, int64(600), CalculateBalance(entries))
}

func TestCalculateBalanceUsesMagnitudes(t *testing.T) {
	// A locally created withdrawal may be stored positive; the fold
	// goes by type, not sign.
	entries := []cache.CachedTransaction{
		tx("1", "R1", "DEPOSIT", 1_000, baseTime),
		tx("2", "R2", "WITHDRAWAL", 400, baseTime),
	}
	assert.Equal(t, int64(600), CalculateBalance(entries))
}

func TestCalculateBalanceIgnoresUnknownTypes(t *testing.T) {
	entries := []cache.CachedTransaction{
		tx("1", "R1", "DEPOSIT", 1_000, baseTime),
		tx("2", "R2", "PROMO_VOUCHER", 9_999, baseTime),
	}
	assert.Equal(t, int64(1_000), CalculateBalance(entries))
}

func TestCalculateBalanceEscrowLifecycle(t *testing.T) {
	// Hold 10,000, then release: payee side sees the release credit,
	// payer side sees the hold debit plus nothing returned.
	payer := []cache.CachedTransaction{
		tx("1", "DEP", "DEPOSIT", 12_000, baseTime),
		tx("2", "ESC", "ESCROW_HOLD", -10_000, baseTime.Add(time.Minute)),
	}
	assert.Equal(t, int64(2_000), CalculateBalance(payer))

	payee := []cache.CachedTransaction{
		tx("3", "REL", "ESCROW_RELEASE", 9_000, baseTime.Add(time.Hour)),
	}
	assert.Equal(t, int64(9_000), CalculateBalance(payee))
}
