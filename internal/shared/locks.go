package shared

import "hash/fnv"

// OrderNumberLockKey derives the advisory lock id serialising OS number allocation per year.
func OrderNumberLockKey(year int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("service_orders:os_number"))
	return int64(h.Sum64()>>1) + int64(year)
}
