package editmode

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lingora/lingora-backend/internal/goroutine"
	"github.com/lingora/lingora-backend/internal/logger"
)

const (
	DefaultDebounce  = 2000 * time.Millisecond
	DefaultSavedHold = 2000 * time.Millisecond
	saveTimeout      = 30 * time.Second
)

// Option настраивает Autosaver.
type Option func(*Autosaver)

// WithDebounce задаёт паузу после последней правки поля.
func WithDebounce(d time.Duration) Option {
	return func(a *Autosaver) { a.debounce = d }
}

// WithSavedHold задаёт, сколько держится статус saved перед возвратом в idle.
func WithSavedHold(d time.Duration) Option {
	return func(a *Autosaver) { a.savedHold = d }
}

type pendingSave struct {
	value any
	gen   uint64
	timer *time.Timer
}

// Autosaver откладывает сохранение каждого поля на debounce с последней правки.
// У каждого поля свой таймер: правки разных полей не вытесняют друг друга.
type Autosaver struct {
	session   *Session
	saver     Saver
	debounce  time.Duration
	savedHold time.Duration

	mu        sync.Mutex
	pending   map[string]*pendingSave
	gen       uint64
	inFlight  int
	failed    bool
	idleTimer *time.Timer
	closed    bool
	waiters   []chan struct{}
}

// NewAutosaver создаёт автосохранение поверх сессии.
func NewAutosaver(session *Session, saver Saver, opts ...Option) *Autosaver {
	a := &Autosaver{
		session:   session,
		saver:     saver,
		debounce:  DefaultDebounce,
		savedHold: DefaultSavedHold,
		pending:   make(map[string]*pendingSave),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AutoSave планирует сохранение поля. Повторная правка того же поля
// заменяет значение и перезапускает его таймер. Возвращает false,
// если редактирование недоступно или автосохранение закрыто.
func (a *Autosaver) AutoSave(field string, value any) bool {
	if !a.session.CanEdit() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}

	a.gen++
	gen := a.gen
	if p, ok := a.pending[field]; ok {
		p.timer.Stop()
	}
	a.pending[field] = &pendingSave{
		value: value,
		gen:   gen,
		timer: time.AfterFunc(a.debounce, func() { a.fire(field, gen) }),
	}
	return true
}

// SaveChanges планирует сохранение каждого изменённого поля и возвращает их число.
func (a *Autosaver) SaveChanges(changes []Change) int {
	n := 0
	for _, ch := range changes {
		if a.AutoSave(ch.Field, ch.New) {
			n++
		}
	}
	return n
}

// PendingFields возвращает поля, ожидающие сохранения.
func (a *Autosaver) PendingFields() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	fields := make([]string, 0, len(a.pending))
	for f := range a.pending {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (a *Autosaver) fire(field string, gen uint64) {
	a.mu.Lock()
	p, ok := a.pending[field]
	if !ok || p.gen != gen || a.closed {
		a.mu.Unlock()
		return
	}
	delete(a.pending, field)
	if !a.session.CanEdit() {
		a.mu.Unlock()
		return
	}
	a.beginLocked()
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	a.finish(field, a.saver.Save(ctx, field, p.value))
}

func (a *Autosaver) beginLocked() {
	if a.inFlight == 0 {
		a.failed = false
	}
	a.inFlight++
	if a.idleTimer != nil {
		a.idleTimer.Stop()
		a.idleTimer = nil
	}
	a.session.SetStatus(StatusSaving)
}

func (a *Autosaver) finish(field string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inFlight--
	if err != nil {
		a.failed = true
		logger.Component("editmode").WithError(err).WithField("field", field).Warn("editmode: автосохранение не удалось")
	}
	if a.inFlight > 0 {
		return
	}
	if a.failed {
		a.session.SetStatus(StatusError)
	} else {
		a.session.SetStatus(StatusSaved)
		a.idleTimer = time.AfterFunc(a.savedHold, a.resetToIdle)
	}
	for _, w := range a.waiters {
		close(w)
	}
	a.waiters = nil
}

func (a *Autosaver) resetToIdle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight == 0 && a.session.Status() == StatusSaved {
		a.session.SetStatus(StatusIdle)
	}
}

// Flush немедленно сохраняет все отложенные поля и ждёт завершения
// всех текущих сохранений. Возвращает объединённые ошибки отложенных полей.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	type job struct {
		field string
		value any
	}
	var jobs []job
	for field, p := range a.pending {
		p.timer.Stop()
		jobs = append(jobs, job{field: field, value: p.value})
	}
	clear(a.pending)
	if !a.session.CanEdit() {
		jobs = nil
	}
	for range jobs {
		a.beginLocked()
	}
	var done chan struct{}
	if a.inFlight > 0 {
		done = make(chan struct{})
		a.waiters = append(a.waiters, done)
	}
	a.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
	)
	for _, j := range jobs {
		goroutine.SafeGo(func() {
			err := a.saver.Save(ctx, j.field, j.value)
			if err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
			a.finish(j.field, err)
		})
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	errMu.Lock()
	defer errMu.Unlock()
	return errors.Join(errs...)
}

// Close отменяет отложенные сохранения. Уже начатые запросы доходят до конца.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for _, p := range a.pending {
		p.timer.Stop()
	}
	clear(a.pending)
	if a.idleTimer != nil {
		a.idleTimer.Stop()
		a.idleTimer = nil
	}
}

// StaffAutosaver сохраняет поля сотрудника сразу, без задержки,
// отражая ход сохранения в общей сессии.
type StaffAutosaver struct {
	session   *Session
	saver     Saver
	savedHold time.Duration

	mu        sync.Mutex
	idleTimer *time.Timer
}

// NewStaffAutosaver оборачивает обработчик сотрудника.
func NewStaffAutosaver(session *Session, fn StaffSaveFunc) *StaffAutosaver {
	return &StaffAutosaver{session: session, saver: NewStaffSaver(fn), savedHold: DefaultSavedHold}
}

// AutoSave сохраняет поле. Без прав на редактирование ничего не делает.
func (s *StaffAutosaver) AutoSave(ctx context.Context, field string, value any) error {
	if !s.session.CanEdit() {
		return nil
	}

	s.mu.Lock()
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()
	s.session.SetStatus(StatusSaving)

	if err := s.saver.Save(ctx, field, value); err != nil {
		logger.Component("editmode").WithError(err).WithField("field", field).Warn("editmode: сохранение сотрудника не удалось")
		s.session.SetStatus(StatusError)
		return err
	}

	s.session.SetStatus(StatusSaved)
	s.mu.Lock()
	s.idleTimer = time.AfterFunc(s.savedHold, func() {
		if s.session.Status() == StatusSaved {
			s.session.SetStatus(StatusIdle)
		}
	})
	s.mu.Unlock()
	return nil
}
