package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlendScores(t *testing.T) {
	cases := []struct {
		name      string
		match     float64
		matchEval float64
		want      float64
	}{
		{"equal halves", 80, 60, 70},
		{"rounds to two decimals", 33.33, 66.67, 50},
		{"uneven blend", 91.5, 74.25, 82.88},
		{"zero evaluator score", 88, 0, 44},
		{"both zero", 0, 0, 0},
		{"full marks", 100, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, BlendScores(tc.match, tc.matchEval), 0.001)
		})
	}
}
