package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
	"github.com/Nikolay-Shirokov/va-ai/internal/scenario"
)

const validFeature = `# encoding: utf-8
# language: ru

Функционал: Запись документа

Сценарий: Записать
	И я нажимаю кнопку с именем "Записать"
	И я жду 3 секунд
`

const invalidFeature = `# encoding: utf-8
# language: ru

Функционал: Запись документа

Сценарий: Записать
	И я нажимаю кнопку с именем "Записать"
	И совершенно посторонний текст
`

type validatePayload struct {
	Valid   bool               `json:"valid"`
	Results []*scenario.Result `json:"results"`
}

func TestValidate_ValidScenario(t *testing.T) {
	dir, args := workspace(t)
	feature := writeFile(t, dir, "ok.feature", validFeature)

	out, _, err := execute(t, append(args, "validate", feature)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Валидация сценария: "+feature)
	assert.Contains(t, out, "ОТЧЕТ О ВАЛИДАЦИИ СЦЕНАРИЯ")
	assert.Contains(t, out, "Ошибок не найдено!")
}

func TestValidate_InvalidScenarioExitsWithFailure(t *testing.T) {
	dir, args := workspace(t)
	feature := writeFile(t, dir, "bad.feature", invalidFeature)

	out, _, err := execute(t, append(args, "validate", feature)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ОШИБКИ (1):")
	assert.NotContains(t, out, "РЕКОМЕНДАЦИИ ДЛЯ AI")
}

func TestValidate_AIFormat(t *testing.T) {
	dir, args := workspace(t)
	feature := writeFile(t, dir, "bad.feature", invalidFeature)

	out, _, err := execute(t, append(args, "validate", "--ai-format", feature)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "ОШИБКИ (1):")
	assert.Contains(t, out, "РЕКОМЕНДАЦИИ ДЛЯ AI-АССИСТЕНТА:")
	assert.Contains(t, out, "посторонний текст")
}

func TestValidate_JSON(t *testing.T) {
	dir, args := workspace(t)
	ok := writeFile(t, dir, "ok.feature", validFeature)
	bad := writeFile(t, dir, "bad.feature", invalidFeature)

	out, _, err := execute(t, append(args, "--format", "json", "validate", ok)...)
	require.NoError(t, err)
	resp := decodeResponse[validatePayload](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, 2, resp.Data.Results[0].Stats.ValidSteps)

	out, _, err = execute(t, append(args, "--format", "json", "validate", ok, bad)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp = decodeResponse[validatePayload](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Results, 2)
	require.Len(t, resp.Data.Results[1].Errors, 1)
	assert.Equal(t, 8, resp.Data.Results[1].Errors[0].Line)
	assert.Equal(t, scenario.KindStep, resp.Data.Results[1].Errors[0].Kind)
}

func TestValidate_MissingFile(t *testing.T) {
	dir, args := workspace(t)

	out, _, err := execute(t, append(args, "validate", filepath.Join(dir, "absent.feature"))...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "Error [E005]")
}

func TestValidate_BadEncoding(t *testing.T) {
	dir, args := workspace(t)
	feature := filepath.Join(dir, "latin1.feature")
	require.NoError(t, os.WriteFile(feature, []byte("# encoding: utf-8\n\xff\xfe\xfd\n"), 0o644))

	_, _, err := execute(t, append(args, "validate", feature)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeEncoding)
}

func TestValidate_RecordsMetrics(t *testing.T) {
	for _, backend := range []string{"jsonl", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			dir, args := workspace(t)
			feature := writeFile(t, dir, "bad.feature", invalidFeature)
			metricsPath := filepath.Join(dir, "data", "metrics."+backend)
			args = append(args, "--metrics-backend", backend, "--metrics-path", metricsPath)

			_, _, err := execute(t, append(args, "validate", feature)...)
			require.Error(t, err)

			events, err := metrics.ReadEvents(t.Context(), metrics.Backend(backend), metricsPath)
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, metrics.EventStepNotFound, events[0].EventType)
			assert.Equal(t, metrics.EventValidation, events[1].EventType)
		})
	}
}

func TestValidate_NoMetricsByDefault(t *testing.T) {
	dir, args := workspace(t)
	feature := writeFile(t, dir, "bad.feature", invalidFeature)

	_, _, err := execute(t, append(args, "validate", feature)...)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "data", e.Name())
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestValidate_JSONWriteFailureIsReported(t *testing.T) {
	dir, args := workspace(t)
	bad := writeFile(t, dir, "bad.feature", invalidFeature)

	cmd := NewRootCommand()
	cmd.SetOut(brokenWriter{})
	cmd.SetErr(&strings.Builder{})
	cmd.SetArgs(append(args, "--format", "json", "validate", bad))

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to write validation result")
	assert.Contains(t, err.Error(), "stdout closed")
}
