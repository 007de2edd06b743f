package canon

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double quoted literal", `Когда я нажимаю кнопку "ОК"`, `я нажимаю кнопку "{}"`},
		{"single quoted literal", `И я ввожу 'текст' в поле`, `я ввожу "{}" в поле`},
		{"variable", `Тогда я запоминаю значение $Сумма$`, `я запоминаю значение ${}$`},
		{"number", `И я жду 5 секунд`, `я жду # секунд`},
		{"digits glued to word", `И я выполняю шаг1`, `я выполняю шаг1`},
		{"digits inside literal", `И я ввожу "123" в поле`, `я ввожу "{}" в поле`},
		{"trailing colon", `И я заполняю таблицу:`, `я заполняю таблицу`},
		{"multi-line takes first line", "И я заполняю таблицу:\n| 'Колонка' |\n| '1' |", `я заполняю таблицу`},
		{"keyword case-insensitive", `КОГДА Я Открываю Форму`, `я открываю форму`},
		{"no keyword", `я нажимаю кнопку "ОК"`, `я нажимаю кнопку "{}"`},
		{"keyword needs whitespace", `Иначе шаг`, `иначе шаг`},
		{"whitespace collapsed", "  Дано   я   открываю\tформу  ", `я открываю форму`},
		{"escaped quote", `И я ввожу \"текст`, `я ввожу "текст`},
		{"empty", ``, ``},
		{"only keyword", `Когда `, `когда`},
		{"stacked keywords", `И и я жду 2 секунды`, `я жду # секунды`},
		{"repeated colons", `И шаг : :`, `шаг`},
		{"Also keyword", `Также я закрываю окно`, `я закрываю окно`},
		{"Later keyword", `Затем я закрываю окно`, `я закрываю окно`},
		{"But keyword", `Но я не вижу ошибок`, `я не вижу ошибок`},
		{"non-breaking space after keyword", "Когда\u00a0я жду", `я жду`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

// idempotenceCorpus collects inputs that a single normalization pass does not
// reach a fixpoint on.
var idempotenceCorpus = []string{
	`Когда я нажимаю кнопку "ОК"`,
	`И и я жду`,
	`Дано когда тогда шаг`,
	`И шаг::`,
	`И шаг : :`,
	`" 'a'`,
	`'a' "b`,
	`И я ввожу \"текст\" в поле`,
	`И я ввожу \\\"текст в поле`,
	`И "" и ''`,
	`$$ $a$ $`,
	`И 1 2 3 и 4`,
	`шаг_1 2_шаг 3`,
	`""""'''`,
	`И "a\" b" 'c\'`,
	"Тогда\tтаблица   содержит 10 строк:\n| a |",
	`   `,
	`И`,
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, in := range idempotenceCorpus {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestCanonicalize_NFC(t *testing.T) {
	// "й" spelled as "и" + combining breve.
	decomposed := "Когда я нажимаю кнопку \"ОК\" \u0438\u0306"
	composed := "Когда я нажимаю кнопку \"ОК\" \u0439"
	assert.Equal(t, Canonicalize(composed), Canonicalize(decomposed))
}

func TestCanonicalize_LiteralsCollapse(t *testing.T) {
	a := Canonicalize(`Когда я нажимаю кнопку "ОК"`)
	b := Canonicalize(`Когда я нажимаю кнопку "Отмена"`)
	assert.Equal(t, a, b)
}

func TestStripKeyword(t *testing.T) {
	assert.Equal(t, `я нажимаю кнопку "ОК"`, StripKeyword(`Когда я нажимаю кнопку "ОК"`))
	assert.Equal(t, `и я жду`, StripKeyword(`И и я жду`))
	assert.Equal(t, `Иначе шаг`, StripKeyword(`Иначе шаг`))
	assert.True(t, HasKeyword(`тогда я вижу`))
	assert.False(t, HasKeyword(`Тогда`))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "И шаг:", FirstLine("  И шаг:\r\n| a |"))
	assert.Equal(t, "", FirstLine(""))
}

func TestCanonicalize_Golden(t *testing.T) {
	steps := []string{
		`Когда я нажимаю кнопку "ОК"`,
		`И я ввожу 'текст' в поле $Имя$`,
		`Тогда таблица "Список" содержит 5 строк:`,
		`  дано Я открываю форму   "Документ 1"  `,
		"И я заполняю таблицу:\n| а | б |",
		`Затем шаг1 и 10 раз`,
		`И и я жду 2 секунды`,
	}

	var buf bytes.Buffer
	for _, s := range steps {
		fmt.Fprintln(&buf, Canonicalize(s))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "canonical_forms", buf.Bytes())
}
