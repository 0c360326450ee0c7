package citation

var romanValues = map[rune]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// RomanToInt decodes an uppercase Roman numeral, scanning right to left and
// subtracting a symbol smaller than the one after it. Any character outside
// the table makes the whole input decode to 1, and results below 1 are
// clamped to 1. It never fails.
func RomanToInt(s string) int {
	runes := []rune(s)
	total, prev := 0, 0
	for i := len(runes) - 1; i >= 0; i-- {
		v, ok := romanValues[runes[i]]
		if !ok {
			return 1
		}
		if v >= prev {
			total += v
		} else {
			total -= v
		}
		prev = v
	}
	if total < 1 {
		return 1
	}
	return total
}
