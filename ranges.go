// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

// selectRange picks the range to program for a requested magnitude. An
// exact table entry wins; otherwise the smallest entry above the request
// is used, so the chosen range never clips the requested magnitude. The
// table must be sorted ascending, which the capability profiles guarantee.
func selectRange(request float64, table []float64) (float64, error) {
	for _, r := range table {
		if r == request {
			return r, nil
		}
	}
	for _, r := range table {
		if r > request {
			return r, nil
		}
	}
	return 0, ErrNoSuitableRange
}
