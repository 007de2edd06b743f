package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/Nikolay-Shirokov/va-ai/internal/metrics"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
	"github.com/Nikolay-Shirokov/va-ai/internal/semantic"
	"github.com/Nikolay-Shirokov/va-ai/internal/testutil"
)

const featureText = `# encoding: utf-8
# language: ru

Функционал: Проверка

Контекст:
	Дано я закрываю все окна клиентского приложения

Сценарий: Основной
	И я нажимаю кнопку с именем "Записать"
	И я жду 3 секунд
	И я нажимаю кнопку с именем
	И я запоминаю значение выражения "1" в переменную "Итог"
	И в поле с именем "Сумма" я ввожу текст "$Итог$"
	И в поле с именем 'Сумма' я ввожу текст "$Неизвестная$"
	И совершенно посторонний текст
`

func newValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	r := resolve.New(testutil.FixtureLibrary(t), resolve.WithLogger(testutil.DiscardLogger()))
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	return New(r, opts...)
}

func validate(t *testing.T, v *Validator, text string) *Result {
	t.Helper()
	res, err := v.Validate(context.Background(), "test.feature", strings.NewReader(text))
	require.NoError(t, err)
	return res
}

func TestValidate_Scenario(t *testing.T) {
	res := validate(t, newValidator(t), featureText)

	assert.Equal(t, Stats{Features: 1, Scenarios: 1, TotalSteps: 8, ValidSteps: 6, InvalidSteps: 2}, res.Stats)
	assert.False(t, res.Valid())

	require.Len(t, res.Errors, 3)
	assert.Equal(t, 12, res.Errors[0].Line)
	assert.Equal(t, KindStep, res.Errors[0].Kind)
	assert.Equal(t, "И я нажимаю кнопку с именем", res.Errors[0].Step)
	require.NotEmpty(t, res.Errors[0].Suggestions)
	assert.Equal(t, testutil.PosButton, res.Errors[0].Suggestions[0].Template.Position)
	assert.Equal(t, "Возможно, вы имели в виду один из этих шагов", res.Errors[0].Suggestion)

	assert.Equal(t, 16, res.Errors[1].Line)
	assert.Empty(t, res.Errors[1].Suggestions)
	assert.Equal(t, "Проверьте правильность написания шага или используйте другой шаг из библиотеки", res.Errors[1].Suggestion)

	assert.Equal(t, 15, res.Errors[2].Line)
	assert.Equal(t, KindSyntax, res.Errors[2].Kind)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, Issue{
		Line:       15,
		Kind:       KindVariable,
		Message:    `Переменная "$Неизвестная$" используется, но не определена`,
		Suggestion: `Добавьте шаг для определения переменной "Неизвестная" перед её использованием`,
	}, res.Warnings[0])

	assert.Len(t, res.StepErrors(), 2)
}

func TestValidate_Headers(t *testing.T) {
	res := validate(t, newValidator(t), "Функционал: Тест\n")
	require.Len(t, res.Errors, 2)
	assert.Equal(t, KindHeader, res.Errors[0].Kind)
	assert.Equal(t, "Отсутствует строка с кодировкой", res.Errors[0].Message)
	assert.Equal(t, "Отсутствует строка с языком", res.Errors[1].Message)

	res = validate(t, newValidator(t), "# -*- coding: utf-8 -*-\n# language: ru\nФункционал: Тест\n")
	assert.True(t, res.Valid())
}

func TestValidate_HeadersOnlyInFirstFiveLines(t *testing.T) {
	text := "Функционал: Тест\n\n\n\n\n# encoding: utf-8\n# language: ru\n"
	res := validate(t, newValidator(t), text)
	assert.Len(t, res.Errors, 2)
}

func TestValidate_FeatureBlock(t *testing.T) {
	res := validate(t, newValidator(t), "# encoding: utf-8\n# language: ru\n")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, Issue{
		Line:       0,
		Kind:       KindStructure,
		Message:    `Отсутствует блок "Функционал:"`,
		Suggestion: `Добавьте блок "Функционал:" перед сценариями`,
	}, res.Errors[0])

	res = validate(t, newValidator(t), "# encoding: utf-8\n# language: ru\nФункционал: \nФункционал:x\n")
	assert.True(t, res.Valid())
	assert.Equal(t, 2, res.Stats.Features)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 3, res.Warnings[0].Line)
	assert.Equal(t, "Функционал без названия", res.Warnings[0].Message)
	assert.Equal(t, 4, res.Warnings[1].Line)
}

func TestValidate_StepsOutsideBlocksAreIgnored(t *testing.T) {
	text := "# encoding: utf-8\n# language: ru\nФункционал: Тест\n" +
		"И совершенно посторонний текст\n" +
		"Сценарий: А\n" +
		"И я жду 1 секунд\n" +
		"\n" +
		"И совершенно посторонний текст\n" +
		"Сценарий: Б\n" +
		"Имя не является шагом\n"
	res := validate(t, newValidator(t), text)
	assert.True(t, res.Valid())
	assert.Equal(t, 2, res.Stats.Scenarios)
	assert.Equal(t, 1, res.Stats.TotalSteps)
}

func TestValidate_CRLFAndBOM(t *testing.T) {
	text := "\ufeff" + strings.ReplaceAll(featureText, "\n", "\r\n")
	res := validate(t, newValidator(t), text)
	assert.Equal(t, 8, res.Stats.TotalSteps)
	assert.Equal(t, 12, res.Errors[0].Line)
}

func TestValidate_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(featureText))
	require.NoError(t, err)

	res, err := newValidator(t).Validate(context.Background(), "utf16.feature", bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, Stats{Features: 1, Scenarios: 1, TotalSteps: 8, ValidSteps: 6, InvalidSteps: 2}, res.Stats)
}

func TestValidate_InvalidEncoding(t *testing.T) {
	_, err := newValidator(t).Validate(context.Background(), "cp1251.feature", bytes.NewReader([]byte{0xD4, 0xF3, 0xED, 0xEA}))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestValidateFile_Missing(t *testing.T) {
	_, err := newValidator(t).ValidateFile(context.Background(), filepath.Join(t.TempDir(), "none.feature"))
	assert.Error(t, err)
}

func TestValidate_RecordsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	sink, err := metrics.OpenJSONL(path)
	require.NoError(t, err)
	rec := metrics.NewRecorder(sink,
		metrics.WithClock(testutil.NewDeterministicClock()),
		metrics.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
	)

	validate(t, newValidator(t, WithRecorder(rec)), featureText)
	require.NoError(t, rec.Close())

	events, err := metrics.ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, events, 3)

	var lines []int
	for _, e := range events[:2] {
		assert.Equal(t, metrics.EventStepNotFound, e.EventType)
		var d metrics.StepNotFoundDetails
		require.NoError(t, json.Unmarshal(e.Details, &d))
		assert.Equal(t, "test.feature", d.File)
		lines = append(lines, d.Line)
	}
	assert.Equal(t, []int{12, 16}, lines)

	assert.Equal(t, metrics.EventValidation, events[2].EventType)
	var run metrics.ValidationRunDetails
	require.NoError(t, json.Unmarshal(events[2].Details, &run))
	assert.Equal(t, metrics.ValidationRunDetails{
		File:         "test.feature",
		Valid:        false,
		Errors:       3,
		Warnings:     1,
		TotalSteps:   8,
		ValidSteps:   6,
		InvalidSteps: 2,
	}, run)
}

func handmadeResult() *Result {
	return &Result{
		File:  "x.feature",
		Stats: Stats{Features: 1, Scenarios: 1, TotalSteps: 3, ValidSteps: 1, InvalidSteps: 2},
		Errors: []Issue{
			{
				Line:       5,
				Kind:       KindStep,
				Step:       "И я нажимаю кнопку",
				Message:    "Шаг не найден в библиотеке",
				Suggestion: "Возможно, вы имели в виду один из этих шагов",
				Suggestions: []resolve.Suggestion{
					{Text: "A", Semantic: &semantic.Match{Confidence: 1, Safe: true}, Level: semantic.LevelHigh},
					{Text: "B"},
					{Text: "C"},
				},
			},
			{
				Line:       6,
				Kind:       KindStep,
				Step:       "И чушь",
				Message:    "Шаг не найден в библиотеке",
				Suggestion: "Проверьте правильность написания шага или используйте другой шаг из библиотеки",
			},
			{
				Line:       1,
				Kind:       KindHeader,
				Message:    "Отсутствует строка с языком",
				Suggestion: "Добавьте в начало файла: # language: ru",
			},
		},
		Warnings: []Issue{
			{
				Line:       7,
				Kind:       KindVariable,
				Message:    `Переменная "$X$" используется, но не определена`,
				Suggestion: `Добавьте шаг для определения переменной "X" перед её использованием`,
			},
		},
	}
}

func TestWriteReport_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, handmadeResult(), true))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "report_verbose", buf.Bytes())
}

func TestWriteAIRecommendations_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAIRecommendations(&buf, handmadeResult()))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "ai_recommendations", buf.Bytes())
}

func TestWriteReports_Valid(t *testing.T) {
	res := &Result{Errors: []Issue{}, Warnings: []Issue{}}

	var buf bytes.Buffer
	require.NoError(t, WriteAIRecommendations(&buf, res))
	assert.Equal(t, "Все шаги корректны! Сценарий можно использовать.\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteReport(&buf, res, false))
	assert.Contains(t, buf.String(), "Ошибок не найдено!")
	assert.Contains(t, buf.String(), "СЦЕНАРИЙ ВАЛИДЕН И ГОТОВ К ЗАПУСКУ!")
	assert.NotContains(t, buf.String(), "%]")
}
