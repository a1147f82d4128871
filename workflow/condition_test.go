package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateCondition(t *testing.T) {
	data := map[string]any{
		"input": map[string]any{
			"prompt":    "a red fox",
			"skipImage": false,
			"count":     float64(2),
			"tags":      []any{},
		},
		"select": map[string]any{
			"project": map[string]any{"selected": true},
		},
	}

	for expression, want := range map[string]bool{
		"{$.input.prompt}":                                  true,
		"{$.input.skipImage}":                               false,
		"{$.input.count}":                                   true,
		"{$.input.tags}":                                    false,
		"{$.input.missing}":                                 false,
		"{$.select.project.selected}":                       true,
		"data.input.count > 1":                              true,
		"data.input.prompt.indexOf('fox') >= 0":             true,
		"$.input.skipImage":                                 false,
		"currentPhase === 'render'":                         true,
		"currentPhase !== 'render' || data.input.skipImage": false,
	} {
		t.Run(expression, func(t *testing.T) {
			got, err := evaluateCondition(context.Background(), expression, data, "render")
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestEvaluateConditionError(t *testing.T) {
	_, err := evaluateCondition(context.Background(), "data.input.nothing.deeper", map[string]any{"input": map[string]any{}}, "render")
	require.Error(t, err)

	_, err = evaluateCondition(context.Background(), "this is not javascript", nil, "render")
	require.Error(t, err)
}

func TestEvaluateConditionStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := evaluateCondition(ctx, "while (true) {}", nil, "render")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		require.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(5 * time.Second):
		t.Fatal("condition kept running after the deadline")
	}
}

func TestEvaluateConditionWithDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := evaluateCondition(ctx, "true", nil, "render")
	require.True(t, errors.Is(err, context.Canceled))

	got, err := evaluateCondition(ctx, "{$.input.prompt}", map[string]any{"input": map[string]any{"prompt": "fox"}}, "render")
	require.NoError(t, err)
	require.True(t, got)
}
