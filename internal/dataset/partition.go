package dataset

// Range is a half-open [Start, End) index interval into a sorted file list.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits n items into at most workers disjoint contiguous ranges
// that cover [0, n) exactly. Earlier ranges absorb the remainder, so sizes
// differ by at most one. The caller must have sorted the underlying list
// first; partitioning an unsorted list would let workers duplicate or skip
// files across runs.
func Partition(n, workers int) []Range {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || workers > n {
		if workers > n {
			workers = n
		}
		if workers <= 1 {
			return []Range{{Start: 0, End: n}}
		}
	}
	size := n / workers
	rem := n % workers
	ranges := make([]Range, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		length := size
		if i < rem {
			length++
		}
		ranges = append(ranges, Range{Start: start, End: start + length})
		start += length
	}
	return ranges
}
