package ingest

import "github.com/Kamar-Folarin/listing-sync/internal/models"

// NewRecords returns the remote records whose identity is not in existing,
// in listing order. A repeated identity within remote is kept once. Records
// without a usable identity are skipped and counted.
func NewRecords(remote []models.Record, existing models.IdentitySet) (fresh []models.Record, skipped int) {
	seen := make(models.IdentitySet, len(remote))
	for _, rec := range remote {
		key, ok := rec.Identity()
		if !ok {
			skipped++
			continue
		}
		if existing.Has(key) || seen.Has(key) {
			continue
		}
		seen.Add(key)
		fresh = append(fresh, rec)
	}
	return fresh, skipped
}
