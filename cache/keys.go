package cache

import "hash/fnv"

// Fingerprint derives a region key from the statement text and its
// rendered argument values.
func Fingerprint(sql string, args []string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(sql))
	for _, a := range args {
		h.Write([]byte{'|'})
		h.Write([]byte(a))
	}
	return h.Sum64()
}
