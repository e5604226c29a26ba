package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lingora/lingora-backend/internal/models"
)

const clockLayout = "15:04"

// ValidateCEFR проверяет уровень владения языком.
func ValidateCEFR(level string) error {
	if _, ok := models.CEFRLevels[level]; !ok {
		return fmt.Errorf("некорректный уровень языка %q: допустимы A1-C2 и native", level)
	}
	return nil
}

// ValidateOpeningHours проверяет расписание: ключи mon..sun, слоты HH:MM,
// открытие раньше закрытия, слоты одного дня не пересекаются.
func ValidateOpeningHours(hours models.OpeningHours) error {
	known := make(map[string]struct{}, len(models.Weekdays))
	for _, d := range models.Weekdays {
		known[d] = struct{}{}
	}

	for day, schedule := range hours {
		if _, ok := known[day]; !ok {
			return fmt.Errorf("неизвестный день недели %q", day)
		}
		if !schedule.Open {
			continue
		}
		if len(schedule.Slots) == 0 {
			return fmt.Errorf("%s: для рабочего дня нужен хотя бы один интервал", day)
		}

		type span struct{ from, to time.Time }
		spans := make([]span, 0, len(schedule.Slots))
		for _, slot := range schedule.Slots {
			from, err := time.Parse(clockLayout, strings.TrimSpace(slot.Open))
			if err != nil {
				return fmt.Errorf("%s: некорректное время открытия %q", day, slot.Open)
			}
			to, err := time.Parse(clockLayout, strings.TrimSpace(slot.Close))
			if err != nil {
				return fmt.Errorf("%s: некорректное время закрытия %q", day, slot.Close)
			}
			if !from.Before(to) {
				return fmt.Errorf("%s: время открытия %s должно быть раньше закрытия %s", day, slot.Open, slot.Close)
			}
			spans = append(spans, span{from, to})
		}

		sort.Slice(spans, func(i, j int) bool { return spans[i].from.Before(spans[j].from) })
		for i := 1; i < len(spans); i++ {
			if spans[i].from.Before(spans[i-1].to) {
				return fmt.Errorf("%s: интервалы работы пересекаются", day)
			}
		}
	}
	return nil
}
