package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lingora/lingora-backend/internal/models"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("Info@Tolk-Amsterdam.nl"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("a@b@c.nl"))
	assert.Error(t, ValidateEmail("user@localhost"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("short"))
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidatePassword(string(long)))
}

func TestValidateHTTPURL(t *testing.T) {
	assert.NoError(t, ValidateHTTPURL("website", ""))
	assert.NoError(t, ValidateHTTPURL("website", "https://lingora.nl"))
	assert.Error(t, ValidateHTTPURL("website", "ftp://lingora.nl"))
	assert.Error(t, ValidateHTTPURL("website", "lingora.nl"))
}

func TestValidateRequired_ListsMissingFields(t *testing.T) {
	err := ValidateRequired(map[string]string{"email": "a@b.nl", "subject": " "}, "email", "subject", "message")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "subject, message")
	}
}

func TestValidateCoordinates(t *testing.T) {
	ok, badLat, badLng := 52.0, 91.0, -181.0
	assert.NoError(t, ValidateCoordinates(&ok, &ok))
	assert.NoError(t, ValidateCoordinates(nil, nil))
	assert.Error(t, ValidateCoordinates(&badLat, nil))
	assert.Error(t, ValidateCoordinates(nil, &badLng))

	nan, inf := math.NaN(), math.Inf(-1)
	assert.Error(t, ValidateCoordinates(&nan, &ok))
	assert.Error(t, ValidateCoordinates(&ok, &inf))
}

func TestValidatePrice(t *testing.T) {
	lo, hi, neg := 10.0, 50.0, -1.0
	assert.NoError(t, ValidatePrice(&lo, &hi))
	assert.Error(t, ValidatePrice(&hi, &lo))
	assert.Error(t, ValidatePrice(&neg, nil))
}

func TestValidateCEFR(t *testing.T) {
	assert.NoError(t, ValidateCEFR("C1"))
	assert.NoError(t, ValidateCEFR("native"))
	assert.Error(t, ValidateCEFR("C3"))
	assert.Error(t, ValidateCEFR(""))
}

func TestValidateOpeningHours(t *testing.T) {
	valid := models.OpeningHours{
		"mon": {Open: true, Slots: []models.TimeSlot{{Open: "09:00", Close: "12:00"}, {Open: "13:00", Close: "17:30"}}},
		"sun": {Open: false},
	}
	assert.NoError(t, ValidateOpeningHours(valid))

	cases := map[string]models.OpeningHours{
		"unknown day":   {"funday": {Open: false}},
		"bad format":    {"tue": {Open: true, Slots: []models.TimeSlot{{Open: "9am", Close: "17:00"}}}},
		"close first":   {"wed": {Open: true, Slots: []models.TimeSlot{{Open: "17:00", Close: "09:00"}}}},
		"overlap":       {"thu": {Open: true, Slots: []models.TimeSlot{{Open: "09:00", Close: "13:00"}, {Open: "12:00", Close: "18:00"}}}},
		"open no slots": {"fri": {Open: true}},
	}
	for name, hours := range cases {
		assert.Error(t, ValidateOpeningHours(hours), name)
	}
}
