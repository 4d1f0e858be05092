package utils

import (
	"fmt"
	"math"
)

// U32Len validates that a table or collection length fits the uint32
// index space both formats use on the wire.
func U32Len(n int, what string) (uint32, error) {
	if n < 0 || int64(n) > math.MaxUint32 {
		return 0, WrapError(fmt.Sprintf("%s length %d", what, n), ErrTableFull)
	}
	return uint32(n), nil
}

// CheckIndex validates a wire index against a table length.
func CheckIndex(idx uint32, n int, what string) error {
	if int64(idx) >= int64(n) {
		return Violation(0, "%s index %d out of range (table has %d entries)", what, idx, n)
	}
	return nil
}
