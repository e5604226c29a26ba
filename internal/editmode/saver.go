package editmode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfilePath адрес частичного обновления своей карточки.
const ProfilePath = "/api/providers/my"

// StaffPath адрес частичного обновления сотрудника.
func StaffPath(staffID uuid.UUID) string {
	return "/api/staff/" + staffID.String()
}

// ErrNotSaved возвращается, когда обработчик сотрудника сообщил о неудаче без ошибки.
var ErrNotSaved = errors.New("editmode: поле не сохранено")

// Saver сохраняет одно поле.
type Saver interface {
	Save(ctx context.Context, field string, value any) error
}

// SaverFunc адаптер функции к Saver.
type SaverFunc func(ctx context.Context, field string, value any) error

func (f SaverFunc) Save(ctx context.Context, field string, value any) error {
	return f(ctx, field, value)
}

// SaveError ответ сервера с кодом не 2xx.
type SaveError struct {
	Field   string
	Status  int
	Message string
}

func (e *SaveError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("editmode: поле %s: код ответа %d", e.Field, e.Status)
	}
	return fmt.Sprintf("editmode: поле %s: код ответа %d: %s", e.Field, e.Status, e.Message)
}

// HTTPSaver отправляет PUT {field: value} с Bearer токеном.
type HTTPSaver struct {
	url        string
	token      func() string
	httpClient *http.Client
}

// NewHTTPSaver создаёт клиента. token читается при каждом запросе,
// поэтому обновлённый после refresh токен подхватывается сразу.
func NewHTTPSaver(baseURL, path string, token func() string) *HTTPSaver {
	return &HTTPSaver{
		url:   strings.TrimRight(baseURL, "/") + path,
		token: token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithHTTPClient подменяет http клиента.
func (s *HTTPSaver) WithHTTPClient(c *http.Client) *HTTPSaver {
	s.httpClient = c
	return s
}

// Save выполняет один PUT без повторов.
func (s *HTTPSaver) Save(ctx context.Context, field string, value any) error {
	body, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return fmt.Errorf("editmode: кодирование поля %s: %w", field, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != nil {
		if token := s.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("editmode: поле %s: %w", field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return &SaveError{Field: field, Status: resp.StatusCode, Message: errorBody.Error}
	}
	return nil
}

// StaffSaveFunc обработчик автосохранения сотрудника: true при успехе.
type StaffSaveFunc func(ctx context.Context, field string, value any) (bool, error)

// StaffSaver приводит StaffSaveFunc к Saver.
type StaffSaver struct {
	fn StaffSaveFunc
}

func NewStaffSaver(fn StaffSaveFunc) *StaffSaver {
	return &StaffSaver{fn: fn}
}

func (s *StaffSaver) Save(ctx context.Context, field string, value any) error {
	ok, err := s.fn(ctx, field, value)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSaved
	}
	return nil
}
