package boost

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		a := float64(i%20) - 10
		b := float64((i*7)%13) - 6
		x = append(x, []float64{a, b})
		target := -2.0
		if a > 0 {
			target = 3
		}
		y = append(y, target+0.1*b)
	}
	return x, y
}

func TestFitLearnsStepFunction(t *testing.T) {
	x, y := stepData()
	ens, err := Fit(context.Background(), x, y, DefaultParams())
	require.NoError(t, err)
	require.Len(t, ens.Trees, 100)

	var sse float64
	for i := range x {
		d := ens.Predict(x[i]) - y[i]
		sse += d * d
	}
	assert.Less(t, math.Sqrt(sse/float64(len(x))), 0.1)
	assert.InDelta(t, 3.0, ens.Predict([]float64{5, 0}), 0.2)
	assert.InDelta(t, -2.0, ens.Predict([]float64{-5, 0}), 0.2)
}

func TestFitDeterministic(t *testing.T) {
	x, y := stepData()
	p := DefaultParams()
	p.Subsample = 0.7

	a, err := Fit(context.Background(), x, y, p)
	require.NoError(t, err)
	b, err := Fit(context.Background(), x, y, p)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestConstantTargetsPredictMean(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{1.5, 1.5, 1.5, 1.5}
	ens, err := Fit(context.Background(), x, y, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, ens.Predict([]float64{10}), 1e-9)
}

func TestSingleRow(t *testing.T) {
	ens, err := Fit(context.Background(), [][]float64{{1, 2}}, []float64{4}, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, ens.Predict([]float64{0, 0}), 1e-9)
}

func TestDecodeRoundTrip(t *testing.T) {
	x, y := stepData()
	ens, err := Fit(context.Background(), x, y, DefaultParams())
	require.NoError(t, err)

	raw, err := json.Marshal(ens)
	require.NoError(t, err)
	back, err := Decode(raw)
	require.NoError(t, err)
	for _, row := range x[:20] {
		assert.Equal(t, ens.Predict(row), back.Predict(row))
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`{"trees":[]}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"features":1,"trees":[{"nodes":[{"f":0,"l":5,"r":6}]}]}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestFitValidation(t *testing.T) {
	ctx := context.Background()
	_, err := Fit(ctx, nil, nil, DefaultParams())
	assert.Error(t, err)
	_, err = Fit(ctx, [][]float64{{1}}, []float64{1, 2}, DefaultParams())
	assert.Error(t, err)
	_, err = Fit(ctx, [][]float64{{1}, {1, 2}}, []float64{1, 2}, DefaultParams())
	assert.Error(t, err)
}

func TestFitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := stepData()
	_, err := Fit(ctx, x, y, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubsampleMask(t *testing.T) {
	x, y := stepData()
	p := DefaultParams()
	p.Subsample = 0.5
	b := newBuilder(x, p)
	rng := rand.New(rand.NewPCG(1, 2))

	mask := b.sample(rng)
	require.Len(t, mask, len(x))
	drawn := 0
	for _, m := range mask {
		if m {
			drawn++
		}
	}
	assert.InDelta(t, len(x)/2, drawn, float64(len(x))/5)

	p.Subsample = 1
	full := newBuilder(x, p).sample(rng)
	for i, m := range full {
		assert.True(t, m, "row %d", i)
	}

	// A subsampled ensemble still fits the step.
	p.Subsample = 0.5
	ens, err := Fit(context.Background(), x, y, p)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, ens.Predict([]float64{5, 0}), 0.3)
}
