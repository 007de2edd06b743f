package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nikolay-Shirokov/va-ai/internal/library"
)

// Fixture template positions.
const (
	PosButton = iota
	PosFieldInput
	PosDropdown
	PosTableRow
	PosWindowOpened
	PosCloseAll
	PosWait
	PosRemember
)

// FixtureRecords is a small library covering every element category.
var FixtureRecords = []library.Record{
	{Text: `И я нажимаю кнопку с именем "ИмяКнопки"`, Type: "UI.Кнопки", Description: "Нажатие кнопки формы"},
	{Text: `И в поле с именем "ИмяПоля" я ввожу текст "Текст"`, Type: "UI.Поля", Description: "Ввод текста в поле"},
	{Text: `И из выпадающего списка с именем "ИмяПоля" я выбираю точное значение "Значение"`, Type: "UI.Списки"},
	{Text: "И в таблице \"ИмяТаблицы\" я перехожу к строке:\n| 'Колонка' |\n| 'Значение' |", Type: "UI.Таблицы"},
	{Text: `Тогда открылось окно "Заголовок"`, Type: "UI.Формы"},
	{Text: `И я закрываю все окна клиентского приложения`, Type: "Навигация"},
	{Text: `И я жду 5 секунд`, Type: "Прочее.Ожидание"},
	{Text: `И я запоминаю значение выражения "Выражение" в переменную "ИмяПеременной"`, Type: "Переменные"},
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FixtureLibrary builds the fixture library in memory.
func FixtureLibrary(t testing.TB) *library.Library {
	t.Helper()
	lib, err := library.New(FixtureRecords, library.WithLogger(DiscardLogger()))
	require.NoError(t, err)
	return lib
}

// WriteFixtureLibrary writes the fixture library as list-shaped JSON into
// dir and returns the file path.
func WriteFixtureLibrary(t testing.TB, dir string) string {
	t.Helper()

	type record struct {
		Title       string `json:"ИмяШага"`
		FullType    string `json:"ПолныйТипШага"`
		Description string `json:"ОписаниеШага"`
	}
	out := make([]record, 0, len(FixtureRecords))
	for _, r := range FixtureRecords {
		out = append(out, record{Title: r.Text, FullType: r.Type, Description: r.Description})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, "library.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
