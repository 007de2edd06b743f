package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

const (
	ruleWidth      = 80
	reportSimilar  = 3
	aiSimilar      = 2
	progressLength = 40
)

// WriteReport renders a human-readable validation report. verbose adds the
// offending step text to step errors.
func WriteReport(w io.Writer, res *Result, verbose bool) error {
	p := &printer{w: w}
	rule := strings.Repeat("=", ruleWidth)

	p.line(rule)
	p.line("ОТЧЕТ О ВАЛИДАЦИИ СЦЕНАРИЯ")
	p.line(rule)
	p.line("")

	st := res.Stats
	p.line("СТАТИСТИКА:")
	p.printf("  Функционалов: %d\n", st.Features)
	p.printf("  Сценариев: %d\n", st.Scenarios)
	p.printf("  Всего шагов: %d\n", st.TotalSteps)
	p.printf("  Валидных шагов: %d\n", st.ValidSteps)
	p.printf("  Невалидных шагов: %d\n", st.InvalidSteps)
	if st.TotalSteps > 0 {
		percent := float64(st.ValidSteps) / float64(st.TotalSteps) * 100
		filled := int(progressLength * percent / 100)
		p.printf("\n  [%s%s] %.1f%%\n", strings.Repeat("█", filled), strings.Repeat("░", progressLength-filled), percent)
	}
	p.line("")

	if len(res.Errors) == 0 {
		p.line("Ошибок не найдено!")
		p.line("")
	} else {
		p.printf("ОШИБКИ (%d):\n\n", len(res.Errors))
		for i, e := range res.Errors {
			p.printf("%d. Строка %d: %s\n", i+1, e.Line, e.Message)
			if e.Kind == KindStep && verbose {
				p.printf("   Шаг: %s\n", e.Step)
			}
			p.printf("   Рекомендация: %s\n", e.Suggestion)
			if len(e.Suggestions) > 0 {
				p.line("   Похожие шаги из библиотеки:")
				for j, s := range head(e.Suggestions, reportSimilar) {
					p.printf("      %d. %s\n", j+1, s.Text)
				}
			}
			p.line("")
		}
	}

	if len(res.Warnings) > 0 {
		p.printf("ПРЕДУПРЕЖДЕНИЯ (%d):\n\n", len(res.Warnings))
		for i, wn := range res.Warnings {
			p.printf("%d. Строка %d: %s\n", i+1, wn.Line, wn.Message)
			p.printf("   Рекомендация: %s\n\n", wn.Suggestion)
		}
	}

	p.line(rule)
	if res.Valid() {
		p.line("СЦЕНАРИЙ ВАЛИДЕН И ГОТОВ К ЗАПУСКУ!")
	} else {
		p.line("ТРЕБУЕТСЯ ИСПРАВЛЕНИЕ ОШИБОК")
	}
	p.line(rule)
	return p.err
}

// WriteAIRecommendations renders the condensed fix list consumed by an
// AI assistant: each unresolved step with its two best replacements, then
// the remaining errors.
func WriteAIRecommendations(w io.Writer, res *Result) error {
	p := &printer{w: w}

	if res.Valid() {
		p.line("Все шаги корректны! Сценарий можно использовать.")
		return p.err
	}

	p.line("РЕКОМЕНДАЦИИ ДЛЯ AI-АССИСТЕНТА:")
	p.line("")
	p.line("Обнаружены следующие проблемы, которые нужно исправить:")
	p.line("")

	if steps := res.StepErrors(); len(steps) > 0 {
		p.line("Шаги, не найденные в библиотеке:")
		p.line("")
		for i, e := range steps {
			p.printf("%d. Строка %d:\n", i+1, e.Line)
			p.printf("   Неверный шаг: %s\n", e.Step)
			if len(e.Suggestions) == 0 {
				p.line("   Похожих шагов не найдено. Выберите другой подход из библиотеки.")
			} else {
				p.line("   Замените на один из этих шагов:")
				for j, s := range head(e.Suggestions, aiSimilar) {
					p.printf("      %d) %s%s\n", j+1, s.Text, annotation(s))
				}
			}
			p.line("")
		}
	}

	var other []Issue
	for _, e := range res.Errors {
		if e.Kind != KindStep {
			other = append(other, e)
		}
	}
	if len(other) > 0 {
		p.line("Другие проблемы:")
		p.line("")
		for _, e := range other {
			p.printf("• %s (строка %d)\n", e.Message, e.Line)
			p.printf("  Решение: %s\n\n", e.Suggestion)
		}
	}
	return p.err
}

// annotation summarizes the semantic verdict of an enhanced suggestion.
func annotation(s resolve.Suggestion) string {
	if s.Semantic == nil {
		return ""
	}
	verdict := "небезопасно"
	if s.Semantic.Safe {
		verdict = "безопасно"
	}
	return fmt.Sprintf(" [уверенность %.2f, %s, %s]", s.Semantic.Confidence, s.Level, verdict)
}

func head(s []resolve.Suggestion, n int) []resolve.Suggestion {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}
