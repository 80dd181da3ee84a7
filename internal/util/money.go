package util

import "math/bits"

// CompletionPercentage returns round(paid / (paid + remaining) * 100) using
// integer arithmetic with halves rounded up. A zero total yields 0.
// The result is 100 only when nothing remains: a tiny outstanding balance that
// would round up to 100 is reported as 99.
// The product paid*100 is carried in 128 bits so amounts near the int64
// limit do not overflow.
func CompletionPercentage(paid, remaining int64) int {
	if paid <= 0 {
		return 0
	}
	if remaining <= 0 {
		return 100
	}
	total := uint64(paid) + uint64(remaining)
	hi, lo := bits.Mul64(uint64(paid), 100)
	pct, rem := bits.Div64(hi, lo, total)
	if rem >= total-rem {
		pct++
	}
	if pct >= 100 {
		return 99
	}
	return int(pct)
}

// SplitEvenly divides total into count parts of floor(total/count), with the
// remainder added to the last part so the parts always sum to total.
func SplitEvenly(total int64, count int) []int64 {
	if count <= 0 {
		return nil
	}
	parts := make([]int64, count)
	base := total / int64(count)
	for i := 0; i < count-1; i++ {
		parts[i] = base
	}
	parts[count-1] = total - base*int64(count-1)
	return parts
}
