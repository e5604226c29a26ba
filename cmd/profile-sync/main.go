// Команда profile-sync применяет правки карточки поставщика или сотрудника
// через автосохранение: читает JSON объект поле→значение и отправляет
// каждое изменённое поле отдельным PUT.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lingora/lingora-backend/internal/editmode"
	"github.com/lingora/lingora-backend/internal/logger"
	"github.com/lingora/lingora-backend/internal/models"
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL  = flag.String("base-url", envOr("LINGORA_API_URL", "http://localhost:8080"), "адрес API")
		token    = flag.String("token", os.Getenv("LINGORA_TOKEN"), "access токен поставщика")
		userID   = flag.String("user", "", "id пользователя-владельца")
		staffID  = flag.String("staff", "", "id сотрудника (по умолчанию правится карточка)")
		input    = flag.String("file", "-", "JSON файл с правками, - для stdin")
		original = flag.String("original", "", "JSON файл с исходными значениями для сравнения")
		timeout  = flag.Duration("timeout", time.Minute, "общий таймаут сохранения")
		level    = flag.String("log-level", "info", "уровень логов")
	)
	flag.Parse()

	logger.Init(*level)
	logger.SetTextFormatter()
	log := logger.Component("profile-sync")

	if *token == "" {
		log.Fatal("profile-sync: не задан токен (-token или LINGORA_TOKEN)")
	}
	owner, err := uuid.Parse(*userID)
	if err != nil {
		log.WithError(err).Fatal("profile-sync: неверный id пользователя")
	}

	edited, err := readObject(*input)
	if err != nil {
		log.WithError(err).Fatal("profile-sync: не удалось прочитать правки")
	}
	base := map[string]any{}
	if *original != "" {
		if base, err = readObject(*original); err != nil {
			log.WithError(err).Fatal("profile-sync: не удалось прочитать исходные значения")
		}
	}

	var staff *uuid.UUID
	if *staffID != "" {
		id, err := uuid.Parse(*staffID)
		if err != nil {
			log.WithError(err).Fatal("profile-sync: неверный id сотрудника")
		}
		staff = &id
	}

	session := editmode.NewSession(
		editmode.Credentials{Token: *token, User: &editmode.User{ID: owner, Role: models.RoleProvider}},
		&editmode.Owner{UserID: owner},
	)
	session.Enter()

	statuses, unsubscribe := session.Subscribe()
	defer unsubscribe()
	go func() {
		for st := range statuses {
			log.WithField("status", st).Debug("profile-sync: статус сохранения")
		}
	}()

	changes := editmode.Diff(base, edited)
	if len(changes) == 0 {
		log.Info("profile-sync: изменений нет")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if staff != nil {
		err = syncStaff(ctx, session, *baseURL, *staff, changes)
	} else {
		err = syncProfile(ctx, session, *baseURL, changes)
	}
	if err != nil {
		log.WithError(err).Error("profile-sync: часть полей не сохранена")
		stop()
		os.Exit(1)
	}
	log.Info("profile-sync: все поля сохранены")
}

// syncProfile планирует поля карточки через автосохранение и сразу дожимает их Flush.
func syncProfile(ctx context.Context, session *editmode.Session, baseURL string, changes []editmode.Change) error {
	saver := editmode.NewHTTPSaver(baseURL, editmode.ProfilePath, session.Token)
	autosaver := editmode.NewAutosaver(session, saver)
	defer autosaver.Close()

	n := autosaver.SaveChanges(changes)
	logger.Component("profile-sync").WithField("fields", autosaver.PendingFields()).Infof("profile-sync: запланировано полей: %d", n)
	return autosaver.Flush(ctx)
}

// syncStaff сохраняет поля сотрудника по одному, как это делает форма сотрудника.
func syncStaff(ctx context.Context, session *editmode.Session, baseURL string, staffID uuid.UUID, changes []editmode.Change) error {
	saver := editmode.NewHTTPSaver(baseURL, editmode.StaffPath(staffID), session.Token)
	staff := editmode.NewStaffAutosaver(session, func(ctx context.Context, field string, value any) (bool, error) {
		if err := saver.Save(ctx, field, value); err != nil {
			return false, err
		}
		return true, nil
	})

	var errs []error
	for _, ch := range changes {
		if err := staff.AutoSave(ctx, ch.Field, ch.New); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func readObject(name string) (map[string]any, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var obj map[string]any
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, fmt.Errorf("разбор JSON: %w", err)
	}
	return obj, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
