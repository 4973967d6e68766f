package transfer

import "netdrive/internel/shared"

// Plan returns the chunk lengths a file of size bytes is sent in. An empty file
// is one empty chunk that is both start and end.
func Plan(size, chunk int64) []int64 {
	if chunk <= 0 {
		chunk = shared.MaxChunkSize
	}
	if size == 0 {
		return []int64{0}
	}
	parts := make([]int64, 0, (size+chunk-1)/chunk)
	for left := size; left > 0; left -= chunk {
		parts = append(parts, min(left, chunk))
	}
	return parts
}
