package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/models"
	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/validation"
)

// Patch тело частичного обновления: поле -> сырое JSON значение.
type Patch map[string]json.RawMessage

// Fields возвращает имена полей в алфавитном порядке.
func (p Patch) Fields() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// optionalText декодирует строку; null и пустая строка дают nil.
func optionalText(field string, raw json.RawMessage, maxLen int) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperror.Validationf("%s должно быть строкой", field)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if err := validation.ValidateLength(field, s, 0, maxLen); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return &s, nil
}

// optionalFloat принимает число, числовую строку, null или пустую строку.
func optionalFloat(field string, raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperror.Validationf("%s должно быть числом", field)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperror.Validationf("%s должно быть числом", field)
	}
	return &f, nil
}

func decodeBool(field string, raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, apperror.Validationf("%s должно быть true или false", field)
	}
	return b, nil
}

func decodeInt(field string, raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != float64(int(f)) {
		return 0, apperror.Validationf("%s должно быть целым числом", field)
	}
	return int(f), nil
}

// nullable переводит указатель в значение для колонки: nil -> NULL.
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// LanguageCatalog проверяет коды языков по справочнику.
type LanguageCatalog interface {
	ActiveLanguageCodes(ctx context.Context, codes []string) (map[string]bool, error)
}

// normalizeLanguageSkills проверяет коды и уровни, убирает дубликаты
// и подставляет уровень по умолчанию.
func normalizeLanguageSkills(ctx context.Context, catalog LanguageCatalog, in []models.LanguageSkill) ([]models.LanguageSkill, error) {
	seen := make(map[string]bool, len(in))
	out := make([]models.LanguageSkill, 0, len(in))
	codes := make([]string, 0, len(in))
	for _, l := range in {
		code := strings.ToLower(strings.TrimSpace(l.LanguageCode))
		if err := validation.ValidateLanguageCode(code); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		if seen[code] {
			continue
		}
		seen[code] = true

		level := strings.TrimSpace(l.CEFRLevel)
		if level == "" {
			level = models.DefaultCEFRLevel
		}
		if err := validation.ValidateCEFR(level); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		out = append(out, models.LanguageSkill{LanguageCode: code, CEFRLevel: level})
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return out, nil
	}
	active, err := catalog.ActiveLanguageCodes(ctx, codes)
	if err != nil {
		return nil, apperror.Internal(err, "не удалось проверить языки")
	}
	for _, code := range codes {
		if !active[code] {
			return nil, apperror.Validation(fmt.Sprintf("неизвестный или неактивный язык: %s", code))
		}
	}
	return out, nil
}

func decodeString(field string, raw json.RawMessage, dst *string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.Validationf("%s должно быть строкой", field)
	}
	return nil
}

// trimmedOrNil обрезает пробелы; пустая строка становится nil.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func logRecalcError(component string, providerID uuid.UUID, err error) {
	logger.Component(component).WithError(err).WithField("provider_id", providerID).
		Warn("service: не удалось пересчитать заполненность")
}
