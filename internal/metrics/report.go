package metrics

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const reportWidth = 80

// WriteReport renders an Analysis as a plain-text report.
func WriteReport(w io.Writer, a Analysis) error {
	var b strings.Builder
	rule := strings.Repeat("=", reportWidth)

	if a.Total == 0 {
		b.WriteString("Файл с метриками пуст. Нет данных для анализа.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%s\nАНАЛИЗ МЕТРИК ВАЛИДАЦИИ (%d событий)\n%s\n\n", rule, a.Total, rule)

	b.WriteString("1. Распределение по типам событий:\n")
	for _, tc := range a.ByType {
		fmt.Fprintf(&b, "  - %s: %d\n", tc.EventType, tc.Count)
	}
	b.WriteString("\n")

	if len(a.TopUnmatched) > 0 {
		b.WriteString("2. Топ-5 самых частых ненайденных шагов:\n")
		for _, sc := range a.TopUnmatched {
			fmt.Fprintf(&b, "  - (%d раз) %s\n", sc.Count, sc.Step)
		}
		b.WriteString("\n")
	}

	if len(a.LowConfidence) > 0 {
		b.WriteString("3. Примеры шагов, требующих внимания (низкая семантическая уверенность):\n")
		for _, lc := range a.LowConfidence {
			fmt.Fprintf(&b, "  - Шаг: %s\n", lc.Step)
			fmt.Fprintf(&b, "    ↳ Лучшая рекомендация (уверенность: %s): %s\n",
				strconv.FormatFloat(lc.Confidence, 'f', -1, 64), lc.Suggestion)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\nАнализ завершен.\n%s\n", rule, rule)
	_, err := io.WriteString(w, b.String())
	return err
}
