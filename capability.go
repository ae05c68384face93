// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package smu2600

import "strings"

// Capabilities describes what a given 2600-series model can do: the legal
// source/measure ranges per quantity and whether a second channel exists.
// Range tables must be sorted ascending. A profile is looked up once at
// connect time and is immutable afterwards.
type Capabilities struct {
	VoltageRanges   []float64
	CurrentRanges   []float64
	ChannelBPresent bool
}

func (c Capabilities) rangeTable(q Quantity) []float64 {
	if q == Current {
		return c.CurrentRanges
	}
	return c.VoltageRanges
}

// defaultProfiles maps a model-number substring to its capabilities. The
// 2611B is the single-channel variant of the 2612B; the 2614B shares the
// 2612B front end. Ranges per the 2600B reference manual.
var defaultProfiles = map[string]Capabilities{
	"2611B": {
		VoltageRanges:   []float64{0.2, 2, 20, 200},
		CurrentRanges:   []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1, 1.5},
		ChannelBPresent: false,
	},
	"2612B": {
		VoltageRanges:   []float64{0.2, 2, 20, 200},
		CurrentRanges:   []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1, 1.5},
		ChannelBPresent: true,
	},
	"2614B": {
		VoltageRanges:   []float64{0.2, 2, 20, 200},
		CurrentRanges:   []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1, 1.5},
		ChannelBPresent: true,
	},
}

// lookupCapabilities matches the model identification string against the
// profile table by substring. Unknown models are a hard failure; guessing
// a default range table risks programming an illegal range.
func lookupCapabilities(model string, profiles map[string]Capabilities) (Capabilities, error) {
	for substr, caps := range profiles {
		if strings.Contains(model, substr) {
			return caps, nil
		}
	}
	return Capabilities{}, ErrUnsupportedModel
}
