package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/tubeindex/internal/config"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 1, 1},
			b:        []float32{-1, -1, -1},
			expected: -1.0,
		},
		{
			name:     "similar vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1.1, 2.1, 3.1},
			expected: 0.999, // Approximately
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Similarity(tt.a, tt.b)
			diff := result - tt.expected
			if diff < 0 {
				diff = -diff
			}
			if diff > 0.001 {
				t.Errorf("Similarity() = %v, want %v (diff: %v)", result, tt.expected, diff)
			}
		})
	}
}

func TestL2Distance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "different vectors",
			a:        []float32{0, 0, 0},
			b:        []float32{3, 4, 0},
			expected: 5.0,
		},
		{
			name:     "unit distance",
			a:        []float32{0, 0},
			b:        []float32{1, 0},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := L2Distance(tt.a, tt.b)
			diff := result - tt.expected
			if diff < 0 {
				diff = -diff
			}
			if diff > 0.001 {
				t.Errorf("L2Distance() = %v, want %v (diff: %v)", result, tt.expected, diff)
			}
		})
	}
}

func TestSimilarityPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for dimension mismatch")
		}
	}()

	Similarity([]float32{1, 2}, []float32{1, 2, 3})
}

func TestL2DistancePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for dimension mismatch")
		}
	}()

	L2Distance([]float32{1, 2}, []float32{1, 2, 3})
}

type fakeClient struct {
	dims    int
	batches [][]string
	err     error
	closed  bool
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeClient) Dimensions() int { return f.dims }
func (f *fakeClient) Close() error    { f.closed = true; return nil }

func TestServiceEmbedBatchSplitsAndAligns(t *testing.T) {
	fc := &fakeClient{dims: 2}
	svc := NewServiceWithClient(fc, 2, "fake")

	texts := []string{"a", "", "bbb", "cc", "dddd"}
	out, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, len(texts))

	assert.Equal(t, [][]string{{"a", "bbb"}, {"cc", "dddd"}}, fc.batches)
	assert.Equal(t, float32(1), out[0][0])
	assert.Nil(t, out[1])
	assert.Equal(t, float32(3), out[2][0])
	assert.Equal(t, float32(4), out[4][0])
	assert.Equal(t, "fake", svc.Model())
	assert.Equal(t, 2, svc.Dimensions())

	require.NoError(t, svc.Close())
	assert.True(t, fc.closed)
}

func TestServiceErrors(t *testing.T) {
	svc := NewServiceWithClient(&fakeClient{err: errors.New("quota exceeded")}, 4, "fake")

	_, err := svc.Embed(context.Background(), "")
	assert.Error(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"", ""})
	assert.Error(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))

	out, err := svc.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestNewServiceUnsupportedProvider(t *testing.T) {
	_, err := NewService(&config.EmbeddingConfig{Provider: "volcengine"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}
