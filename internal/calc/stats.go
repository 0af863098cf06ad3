// Basic calculation functions
package calc

import "slices"

type Number interface {
	~uint64 | ~float64
}

// Mean of the values after dropping trimPercent of them from each end of the sorted list.
// At least one value always remains.
func TrimmedMean[T Number](values []T, trimPercent float64) (mean T) {
	n := len(values)
	if n == 0 {
		return
	}
	if trimPercent < 0 {
		trimPercent = 0
	}

	nums := slices.Clone(values)
	slices.Sort(nums)

	trimCount := int(float64(n) * trimPercent)
	if trimCount*2 >= n {
		trimCount = (n - 1) / 2
	}
	kept := nums[trimCount : n-trimCount]

	var sum T
	for _, v := range kept {
		sum += v
	}
	mean = sum / T(len(kept))
	return
}
