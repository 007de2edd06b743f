package stepparse

// ActionKind is the category of an action keyword.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionClick
	ActionInput
	ActionSelect
	ActionVerify
	ActionNavigate
)

var actionKindNames = [...]string{
	ActionUnknown:  "unknown",
	ActionClick:    "клик",
	ActionInput:    "ввод",
	ActionSelect:   "выбор",
	ActionVerify:   "проверка",
	ActionNavigate: "навигация",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionKindNames) {
		return actionKindNames[ActionUnknown]
	}
	return actionKindNames[k]
}

// ElementKind is the category of a UI element keyword.
type ElementKind int

const (
	ElementUnknown ElementKind = iota
	ElementButton
	ElementField
	ElementList
	ElementLink
	ElementTable
	ElementContainer
)

var elementKindNames = [...]string{
	ElementUnknown:   "unknown",
	ElementButton:    "кнопочные",
	ElementField:     "поля",
	ElementList:      "списки",
	ElementLink:      "ссылки",
	ElementTable:     "таблицы",
	ElementContainer: "формы",
}

func (k ElementKind) String() string {
	if k < 0 || int(k) >= len(elementKindNames) {
		return elementKindNames[ElementUnknown]
	}
	return elementKindNames[k]
}

type actionRule struct {
	kind     ActionKind
	triggers []string
}

// actionTable is scanned in order. "выбираю" under ActionClick shadows the
// longer ActionSelect triggers for substring extraction; they still matter
// for ActionCategory lookups.
var actionTable = []actionRule{
	{ActionClick, []string{"нажимаю", "кликаю", "щелкаю", "выбираю"}},
	{ActionInput, []string{"ввожу", "устанавливаю", "задаю", "заполняю"}},
	{ActionSelect, []string{"выбираю из", "выбираю по", "выбираю точное"}},
	{ActionVerify, []string{"проверяю", "сравниваю", "убеждаюсь", "жду"}},
	{ActionNavigate, []string{"открываю", "перехожу", "закрываю", "активизирую"}},
}

// actionStopWords never become a fallback action.
var actionStopWords = map[string]bool{
	"я":  true,
	"в":  true,
	"из": true,
	"у":  true,
}

type elementRule struct {
	kind     ElementKind
	triggers []string

	// label is the normalized element reported for any trigger hit.
	label string

	// qualifiedLabel replaces label when the step contains a qualifier.
	qualifiers     []string
	qualifiedLabel string
}

var elementTable = []elementRule{
	{
		kind:     ElementButton,
		triggers: []string{"кнопка", "кнопка с именем", "кнопка командного интерфейса", "кнопка выбора", "кнопку"},
		label:    "кнопка",
	},
	{
		kind:     ElementField,
		triggers: []string{"поле", "поле с именем", "поле ввода", "поля"},
		label:    "поле",
	},
	{
		kind:           ElementList,
		triggers:       []string{"выпадающий список", "выпадающего списка", "список", "дерево"},
		label:          "список",
		qualifiers:     []string{"выпадающий", "выпадающего"},
		qualifiedLabel: "выпадающий список",
	},
	{
		kind:     ElementLink,
		triggers: []string{"гиперссылка", "гиперссылку", "навигационная ссылка", "навигационную ссылку"},
		label:    "гиперссылка",
	},
	{
		kind:     ElementTable,
		triggers: []string{"таблица", "таблице", "табличная часть", "табличной части"},
		label:    "таблица",
	},
	{
		kind:     ElementContainer,
		triggers: []string{"форма", "форме", "окно", "панель", "группа"},
		label:    "форма",
	},
}

var contextPhrases = []string{
	"в таблице",
	"в табличной части",
	"в форме",
	"в окне",
	"в дереве",
	"в панели",
	"в группе",
}

// contextSynonyms lists context pairs that name the same execution scope.
var contextSynonyms = [][2]string{
	{"в таблице", "в табличной части"},
	{"в форме", "в окне"},
}
