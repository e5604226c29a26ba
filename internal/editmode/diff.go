package editmode

import (
	"reflect"
	"sort"
)

// Change изменённое поле формы.
type Change struct {
	Field string
	Old   any
	New   any
}

// Diff сравнивает исходные и отредактированные значения формы и возвращает
// изменения, отсортированные по имени поля. Отсутствующий ключ
// равнозначен значению nil.
func Diff(original, edited map[string]any) []Change {
	var changes []Change
	for field, newValue := range edited {
		oldValue := original[field]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes = append(changes, Change{Field: field, Old: oldValue, New: newValue})
	}
	for field, oldValue := range original {
		if _, ok := edited[field]; !ok && oldValue != nil {
			changes = append(changes, Change{Field: field, Old: oldValue})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// HasChanges сообщает, отличается ли форма от исходной.
func HasChanges(original, edited map[string]any) bool {
	return len(Diff(original, edited)) > 0
}
