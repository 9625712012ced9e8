package reconcile

import (
	"fmt"

	"github.com/StayBridge/StayBridge-Backend/client/cache"
)

// matchKeys returns an entry's identity keys in priority order:
// reference, provider reference, id, then a composite fallback. The
// first key shared by two entries decides a match.
func matchKeys(t cache.CachedTransaction) []string {
	var keys []string
	if t.Reference != "" {
		keys = append(keys, "ref:"+t.Reference)
	}
	if t.ProviderReference != "" {
		keys = append(keys, "prov:"+t.ProviderReference)
	}
	if t.ID != "" {
		keys = append(keys, "id:"+t.ID)
	}
	keys = append(keys, fmt.Sprintf("cmp:%s|%d|%d", t.Type, t.Amount, t.CreatedAt.Unix()))
	return keys
}

// Merge folds local cache entries into the authoritative set. On a
// match the server's fields win, except caller-local annotations the
// server does not track. Local entries with divergent amounts are kept
// at the server's amount and flagged CONFLICT; unmatched local entries
// survive as LOCAL_ONLY. The output is deduplicated a second time with
// the same key priority.
func Merge(authoritative []cache.CachedTransaction, local []cache.CachedTransaction) []cache.CachedTransaction {
	merged := make([]cache.CachedTransaction, len(authoritative))
	index := make(map[string]int)

	for i, entry := range authoritative {
		entry.SyncState = cache.SyncSynced
		merged[i] = entry
		for _, key := range matchKeys(entry) {
			if _, taken := index[key]; !taken {
				index[key] = i
			}
		}
	}

	for _, entry := range local {
		matched := -1
		for _, key := range matchKeys(entry) {
			if i, ok := index[key]; ok {
				matched = i
				break
			}
		}

		if matched < 0 {
			if entry.SyncState == "" {
				entry.SyncState = cache.SyncLocalOnly
			}
			merged = append(merged, entry)
			continue
		}

		// Authoritative fields win; preserve the local annotation.
		if entry.SenderName != "" {
			merged[matched].SenderName = entry.SenderName
		}
		if entry.Amount != merged[matched].Amount {
			merged[matched].SyncState = cache.SyncConflict
		}
	}

	return dedupe(merged)
}

func dedupe(entries []cache.CachedTransaction) []cache.CachedTransaction {
	seen := make(map[string]bool)
	out := entries[:0:0]

	for _, entry := range entries {
		keys := matchKeys(entry)
		duplicate := false
		for _, key := range keys {
			if seen[key] {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		for _, key := range keys {
			seen[key] = true
		}
		out = append(out, entry)
	}

	return out
}

// Financial direction per transaction type. Types absent from both sets
// carry no monetary effect (promotional vouchers and the like) and are
// excluded from the fold entirely.
var creditTypes = map[string]bool{
	"DEPOSIT":        true,
	"TRANSFER_IN":    true,
	"ESCROW_RELEASE": true,
	"BOOKING_REFUND": true,
}

var debitTypes = map[string]bool{
	"WITHDRAWAL":   true,
	"TRANSFER_OUT": true,
	"PAYMENT":      true,
	"ESCROW_HOLD":  true,
	"PLATFORM_FEE": true,
}

// CalculateBalance folds the merged list into a balance. Magnitudes are
// used so locally created entries with either sign convention fold the
// same way.
func CalculateBalance(entries []cache.CachedTransaction) int64 {
	var balance int64
	for _, entry := range entries {
		amount := entry.Amount
		if amount < 0 {
			amount = -amount
		}
		switch {
		case creditTypes[entry.Type]:
			balance += amount
		case debitTypes[entry.Type]:
			balance -= amount
		}
	}
	return balance
}
