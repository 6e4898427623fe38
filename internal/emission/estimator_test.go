package emission_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmobility/qmobility/internal/emission"
	"github.com/qmobility/qmobility/internal/recommend"
)

func ptr(v float64) *float64 { return &v }

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		mode recommend.Mode
		km   float64
		want int
	}{
		{"metro rail", recommend.ModeMetroRail, 6, 210},
		{"rail last mile", recommend.ModeRailLastMile, 20, 700},
		{"taxi", recommend.ModeTaxi, 8, 1600},
		{"car", recommend.ModeCar, 10, 1700},
		{"intercity", recommend.ModeCarOrIntercity, 20, 1600},
		{"walk", recommend.ModeWalk, 0.8, 0},
		{"rounds half up", recommend.ModeMetroBus, 0.1, 4},
		{"miles conversion", recommend.ModeCar, 5 * 1.60934, 1368},
		{"unknown mode default", recommend.Mode("HOVERBOARD"), 2, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := emission.Estimate(tt.mode, ptr(tt.km))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestEstimate_NilIffDistanceNil(t *testing.T) {
	for _, m := range recommend.AllModes {
		assert.Nil(t, emission.Estimate(m, nil), m)
		assert.NotNil(t, emission.Estimate(m, ptr(3)), m)
	}
}

func TestEstimate_WalkAndBikeLabelsAreZero(t *testing.T) {
	for _, m := range recommend.AllModes {
		label := strings.ToLower(m.Label())
		if !strings.Contains(label, "walk") && !strings.Contains(label, "bike") {
			continue
		}
		for _, km := range []float64{0.5, 3, 42} {
			got := emission.Estimate(m, ptr(km))
			require.NotNil(t, got)
			assert.Zero(t, *got, m)
		}
	}
}

func TestCompare(t *testing.T) {
	rows := emission.Compare(10)
	require.Len(t, rows, 4)
	assert.Equal(t, "Car", rows[0].Mode)
	assert.Equal(t, 1700, rows[0].TotalGrams)
	assert.Equal(t, 800, rows[1].TotalGrams)
	assert.Equal(t, 350, rows[2].TotalGrams)
	assert.Equal(t, 0, rows[3].TotalGrams)
}
