// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package natsort implements a numeric-aware, case-insensitive string collation.

Keys are split into alternating runs of ASCII digits and non-digits. Digit
runs compare by integer value ("2" < "10", "007" == "7"), non-digit runs
compare as Unicode case-folded text. The first differing run decides. When
every shared run is equal, the key with fewer runs sorts first.

# Usage

	sort.SliceStable(names, func(i, j int) bool {
	    return natsort.Less(names[i], names[j])
	})

Digit runs are compared without converting to machine integers, so
arbitrarily long numbers never overflow.
*/
package natsort

import (
	"cmp"
	"strings"

	"golang.org/x/text/cases"
)

// run is one maximal span of digits or non-digits inside a key.
type run struct {
	text   string
	digits bool
}

// # Collation

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b under the numeric-aware collation.
func Compare(a, b string) int {

	// A Caser is stateful, so each comparison owns its own instance.
	fold := cases.Fold()

	left, right := split(a), split(b)

	for i := 0; i < len(left) && i < len(right); i++ {
		x, y := left[i], right[i]

		var order int
		if x.digits && y.digits {
			order = compareDigits(x.text, y.text)
		} else {
			order = strings.Compare(fold.String(x.text), fold.String(y.text))
		}

		if order != 0 {
			return order
		}
	}

	return cmp.Compare(len(left), len(right))
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// # Internal Helpers

// split breaks s into alternating digit and non-digit runs.
//
// Working on bytes is safe: ASCII digits never occur inside a multi-byte
// UTF-8 sequence.
func split(s string) []run {
	var runs []run

	for start := 0; start < len(s); {
		isDigit := isASCIIDigit(s[start])

		end := start
		for end < len(s) && isASCIIDigit(s[end]) == isDigit {
			end++
		}

		runs = append(runs, run{text: s[start:end], digits: isDigit})
		start = end
	}

	return runs
}

// compareDigits orders two digit runs by numeric value.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	// More significant digits means a larger number.
	if order := cmp.Compare(len(a), len(b)); order != 0 {
		return order
	}

	return strings.Compare(a, b)
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
