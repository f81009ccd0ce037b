//go:build cgo

package fastembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/internal/fault"
)

type fakeModel struct {
	inputs []string
	out    [][]float32
	err    error
}

func (m *fakeModel) Embed(input []string, batchSize int) ([][]float32, error) {
	m.inputs = append(m.inputs, input...)
	return m.out, m.err
}

func (m *fakeModel) Destroy() error {
	return nil
}

func TestEmbedPassesRawText(t *testing.T) {
	m := &fakeModel{out: [][]float32{{0.1, 0.2, 0.3}}}
	e := &fastEmbedder{options: embedder.NewOptions(), model: m, dimension: 3}

	vec, err := e.Embed(context.Background(), "what is humanoid robotics")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"what is humanoid robotics"}, m.inputs)
}

func TestEmbedFailures(t *testing.T) {
	e := &fastEmbedder{options: embedder.NewOptions(), model: &fakeModel{err: errors.New("onnx")}}
	_, err := e.Embed(context.Background(), "q")
	assert.Equal(t, fault.KindEmbedding, fault.KindOf(err))

	e = &fastEmbedder{options: embedder.NewOptions(), model: &fakeModel{}}
	_, err = e.Embed(context.Background(), "q")
	assert.Equal(t, fault.KindEmbedding, fault.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &fakeModel{out: [][]float32{{1}}}
	e = &fastEmbedder{options: embedder.NewOptions(), model: m}
	_, err = e.Embed(ctx, "q")
	assert.Equal(t, fault.KindEmbedding, fault.KindOf(err))
	assert.Empty(t, m.inputs)
}
