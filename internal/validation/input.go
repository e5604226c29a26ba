package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxBusinessNameLength = 200
	MaxBioLength          = 5000
	MaxAddressLength      = 255
	MaxCityLength         = 100
	MaxPostalCodeLength   = 20
	MaxPhoneLength        = 32
	MaxURLLength          = 500
	MaxServiceTitleLength = 200
	MaxStaffNameLength    = 120
	MaxSubjectLength      = 255
	MaxMessageLength      = 5000
	MaxNoteLength         = 5000
	MaxSenderNameLength   = 120
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9 ()\-]{6,}$`)
	languageRegex    = regexp.MustCompile(`^[a-z]{2,3}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateRequired проверяет набор обязательных строковых полей
// и возвращает ошибку с именами всех пропущенных.
func ValidateRequired(fields map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("обязательные поля не заполнены: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateHTTPURL проверяет, что ссылка абсолютная и использует http(s).
func ValidateHTTPURL(fieldName, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}
	if err := ValidateLength(fieldName, link, 0, MaxURLLength); err != nil {
		return err
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%s: некорректный формат URL", fieldName)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: ссылка должна начинаться с http:// или https://", fieldName)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s: ссылка должна содержать доменное имя", fieldName)
	}
	return nil
}

// ValidatePhone проверяет номер телефона.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if len(phone) > MaxPhoneLength || !phoneRegex.MatchString(phone) {
		return fmt.Errorf("некорректный номер телефона")
	}
	return nil
}

// ValidateCoordinates проверяет диапазон широты и долготы.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat != nil && !isFinite(*lat)) || (lng != nil && !isFinite(*lng)) {
		return fmt.Errorf("координаты должны быть конечными числами")
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return fmt.Errorf("широта должна быть в диапазоне от -90 до 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return fmt.Errorf("долгота должна быть в диапазоне от -180 до 180")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateLanguageCode проверяет код языка (ISO 639-1/639-2).
func ValidateLanguageCode(code string) error {
	if !languageRegex.MatchString(code) {
		return fmt.Errorf("некорректный код языка: %q", code)
	}
	return nil
}

// ValidatePrice проверяет диапазон цены услуги.
func ValidatePrice(priceMin, priceMax *float64) error {
	if priceMin != nil && *priceMin < 0 {
		return fmt.Errorf("минимальная цена не может быть отрицательной")
	}
	if priceMax != nil && *priceMax < 0 {
		return fmt.Errorf("максимальная цена не может быть отрицательной")
	}
	if priceMin != nil && priceMax != nil && *priceMin > *priceMax {
		return fmt.Errorf("минимальная цена не может быть больше максимальной")
	}
	return nil
}
