package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nikolay-Shirokov/va-ai/internal/stepparse"
)

func TestCompare_DroppedContextIsSafe(t *testing.T) {
	m := Compare(`И я нажимаю кнопку "ОК" в таблице`, `И я нажимаю кнопку "{}"`)

	assert.True(t, m.Action)
	assert.True(t, m.Element)
	assert.True(t, m.Context)
	assert.True(t, m.Params)
	assert.True(t, m.Safe)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Empty(t, m.Warnings)
	assert.Equal(t, LevelHigh, m.Level())
}

func TestCompare_ElementMismatchIsUnsafe(t *testing.T) {
	m := Compare(`И я нажимаю поле "Имя"`, `И я нажимаю кнопку "Имя"`)

	assert.True(t, m.Action)
	assert.False(t, m.Element)
	assert.False(t, m.Safe)
	assert.Equal(t, 0.6, m.Confidence)
	assert.Equal(t, LevelLow, m.Level())
	assert.Equal(t, []string{"Different UI element type: 'поле' vs 'кнопка'"}, m.Warnings)
}

func TestCompare_ActionMismatch(t *testing.T) {
	m := Compare(`И я нажимаю кнопку "ОК"`, `И я проверяю кнопку "ОК"`)

	assert.False(t, m.Action)
	assert.True(t, m.Element)
	assert.False(t, m.Safe)
	assert.Equal(t, []string{"Different action type: 'нажимаю' vs 'проверяю'"}, m.Warnings)
}

func TestCompare_CompatibleActions(t *testing.T) {
	m := Compare(`И я кликаю кнопку "ОК"`, `И я нажимаю кнопку "ОК"`)
	assert.True(t, m.Action)
	assert.True(t, m.Safe)
}

func TestCompare_AddedContext(t *testing.T) {
	m := Compare(`И я нажимаю кнопку "ОК"`, `И я нажимаю кнопку "ОК" в форме`)

	assert.False(t, m.Context)
	assert.True(t, m.Safe)
	assert.Equal(t, 0.85, m.Confidence)
	assert.Equal(t, LevelHigh, m.Level())
	assert.Equal(t, []string{"Different context: '' vs 'в форме'"}, m.Warnings)
}

func TestCompare_ContextSynonyms(t *testing.T) {
	assert.True(t, Compare(`И я нажимаю кнопку в форме`, `И я нажимаю кнопку в окне`).Context)
	assert.True(t, Compare(`И я выбираю строку в таблице`, `И я выбираю строку в табличной части`).Context)
	assert.False(t, Compare(`И я нажимаю кнопку в форме`, `И я нажимаю кнопку в таблице`).Context)
}

func TestCompare_Params(t *testing.T) {
	m := Compare(`И я ввожу "a" в поле "b"`, `И я ввожу в поле "x"`)
	assert.True(t, m.Params)

	m = Compare(`И я ввожу "a" "b" "c" в поле`, `И я ввожу в поле "x"`)
	assert.False(t, m.Params)
	assert.Contains(t, m.Warnings, "Different number of parameters: 3 vs 1")
	assert.True(t, m.Safe)
	assert.Equal(t, 0.95, m.Confidence)
}

func TestCompare_MissingFeaturesDoNotPenalize(t *testing.T) {
	m := CompareParsed(stepparse.ParsedStep{}, stepparse.ParsedStep{Action: "нажимаю", Element: "кнопка"})
	assert.True(t, m.Action)
	assert.True(t, m.Element)
	assert.True(t, m.Safe)
}

func TestConfidence_Monotonic(t *testing.T) {
	bools := []bool{false, true}
	for _, a := range bools {
		for _, e := range bools {
			for _, c := range bools {
				for _, p := range bools {
					base := Confidence(a, e, c, p)
					assert.GreaterOrEqual(t, Confidence(true, e, c, p), base)
					assert.GreaterOrEqual(t, Confidence(a, true, c, p), base)
					assert.GreaterOrEqual(t, Confidence(a, e, true, p), base)
					assert.GreaterOrEqual(t, Confidence(a, e, c, true), base)
					assert.GreaterOrEqual(t, base, 0.0)
					assert.LessOrEqual(t, base, 1.0)
				}
			}
		}
	}
	assert.Equal(t, 1.0, Confidence(true, true, true, true))
	assert.Equal(t, 0.0, Confidence(false, false, false, false))
}

func TestSafetyImpliesActionAndElement(t *testing.T) {
	steps := []string{
		`И я нажимаю кнопку "ОК"`,
		`И я ввожу "x" в поле "y"`,
		`И я выбираю из выпадающего списка "a"`,
		`И я открываю форму в окне`,
		`И я проверяю таблицу в форме`,
		`И я жду`,
		`Тогда таблица пустая`,
	}
	for _, a := range steps {
		for _, b := range steps {
			m := Compare(a, b)
			if m.Safe {
				assert.True(t, m.Action && m.Element, "%q vs %q", a, b)
			}
		}
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, LevelHigh, Level(0.81))
	assert.Equal(t, LevelMedium, Level(0.8))
	assert.Equal(t, LevelMedium, Level(0.61))
	assert.Equal(t, LevelLow, Level(0.6))
	assert.Equal(t, LevelLow, Level(0))
}
