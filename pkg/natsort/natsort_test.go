// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package natsort_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/comicrewriter/pkg/natsort"
)

/*
TestCompare covers the digit-run, case and prefix rules of the collation.
*/
func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"numeric_run_by_value", "2.jpg", "10.jpg", -1},
		{"numeric_run_inside_text", "page2.jpg", "page10.jpg", -1},
		{"reverse_numeric", "p10.jpg", "p2.jpg", 1},
		{"leading_zeros_equal", "007.jpg", "7.jpg", 0},
		{"padded_vs_unpadded", "001.jpg", "10.jpg", -1},
		{"case_insensitive", "Page1.PNG", "page1.png", 0},
		{"text_before_number_run", "a1", "b0", -1},
		{"prefix_sorts_first", "chapter", "chapter 2", -1},
		{"huge_numbers_do_not_overflow", "99999999999999999999999", "100000000000000000000000", -1},
		{"unicode_fold", "Tập 2", "TẬP 2", 0},
		{"identical", "x", "x", 0},
		{"empty_first", "", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, natsort.Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, natsort.Compare(tt.b, tt.a))
		})
	}
}

/*
TestLess_SortsPageNames checks a realistic scanner naming scheme.
*/
func TestLess_SortsPageNames(t *testing.T) {
	names := []string{"page10.jpg", "page2.jpg", "Page1.jpg", "page11.jpg", "page3.jpg"}

	sort.SliceStable(names, func(i, j int) bool {
		return natsort.Less(names[i], names[j])
	})

	assert.Equal(t, []string{"Page1.jpg", "page2.jpg", "page3.jpg", "page10.jpg", "page11.jpg"}, names)
}
