package validator

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptySeatSet indicates no valid seat numbers survived normalization
var ErrEmptySeatSet = errors.New("at least one valid seat number is required")

// NormalizeSeats cleans a raw seat list as it arrives from JSON into a
// deduplicated, ascending set of positive integers. JSON clients send seat
// numbers as floats, quoted strings, duplicates and the occasional junk
// value; everything that is not a positive whole number is dropped.
// Returns ErrEmptySeatSet when nothing valid remains.
func NormalizeSeats(raw []interface{}) ([]int, error) {
	seen := make(map[int]struct{}, len(raw))
	for _, v := range raw {
		n, ok := toSeatNumber(v)
		if !ok || n <= 0 {
			continue
		}
		seen[n] = struct{}{}
	}

	if len(seen) == 0 {
		return nil, ErrEmptySeatSet
	}

	seats := make([]int, 0, len(seen))
	for n := range seen {
		seats = append(seats, n)
	}
	sort.Ints(seats)
	return seats, nil
}

// toSeatNumber converts a single raw value to a whole seat number.
// Fractional floats and non-numeric strings are rejected.
func toSeatNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
