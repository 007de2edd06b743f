package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
)

func TestMetrics_Report(t *testing.T) {
	for _, backend := range []string{"jsonl", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir, args := workspace(t)
			feature := writeFile(t, dir, "bad.feature", invalidFeature)
			args = append(args, "--metrics-backend", backend, "--metrics-path", filepath.Join(dir, "metrics."+backend))

			for range 2 {
				_, _, err := execute(t, append(args, "validate", feature)...)
				require.Error(t, err)
			}

			out, _, err := execute(t, append(args, "metrics")...)
			require.NoError(t, err)
			assert.Contains(t, out, "АНАЛИЗ МЕТРИК ВАЛИДАЦИИ (4 событий)")
			assert.Contains(t, out, "  - step_not_found: 2\n  - validation_run: 2\n")
			assert.Contains(t, out, "(2 раз) И совершенно посторонний текст")

			out, _, err = execute(t, append(args, "--format", "json", "metrics")...)
			require.NoError(t, err)
			resp := decodeResponse[metrics.Analysis](t, out)
			assert.Equal(t, 4, resp.Data.Total)
			require.Len(t, resp.Data.TopUnmatched, 1)
			assert.Equal(t, 2, resp.Data.TopUnmatched[0].Count)
		})
	}
}

func TestMetrics_RequiresPath(t *testing.T) {
	_, args := workspace(t)

	_, _, err := execute(t, append(args, "metrics")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeConfig)
}

func TestMetrics_MissingLog(t *testing.T) {
	dir, args := workspace(t)

	out, _, err := execute(t, append(args, "metrics", "--metrics-path", filepath.Join(dir, "absent.jsonl"))...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "metrics log not found")
}
