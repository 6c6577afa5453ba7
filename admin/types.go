package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Transmission is the gearbox a learner trains on.
type Transmission string

const (
	TransmissionManual    Transmission = "MANUAL"
	TransmissionAutomatic Transmission = "AUTOMATIC"
)

var transmissions = []Transmission{TransmissionManual, TransmissionAutomatic}

// Difficulty grades a driving scenario.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseTransmission accepts a name in any case.
func ParseTransmission(s string) (Transmission, error) {
	return parseEnum(s, transmissions, "transmission")
}

// ParseDifficulty accepts a name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	return parseEnum(s, difficulties, "difficulty")
}

func (t *Transmission) UnmarshalText(text []byte) error {
	v, err := ParseTransmission(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalJSON accepts the enum name or its ordinal, which some API versions send.
func (t *Transmission) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, transmissions, "transmission")
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d *Difficulty) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, difficulties, "difficulty")
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func parseEnum[E ~string](s string, values []E, kind string) (E, error) {
	for _, v := range values {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q", kind, s)
}

func unmarshalEnum[E ~string](data []byte, values []E, kind string) (E, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return parseEnum(s, values, kind)
	}
	i, err := strconv.Atoi(string(data))
	if err != nil || i < 0 || i >= len(values) {
		return "", fmt.Errorf("unknown %s %s", kind, data)
	}
	return values[i], nil
}

// Date is a session date. It decodes both RFC 3339 timestamps and plain dates.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Date) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

// String renders the date for tables.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// User is a learner or staff account.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"Password,omitempty" validate:"required"` // write-only, never returned by the API
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`

	Transmission Transmission `json:"transmission,omitempty" validate:"omitempty,oneof=MANUAL AUTOMATIC"`
}

// UserUpdate carries the fields of a partial user update. Nil fields are left as they are.
type UserUpdate struct {
	Email        *string       `json:"email,omitempty"`
	Password     *string       `json:"Password,omitempty"`
	FirstName    *string       `json:"firstName,omitempty"`
	LastName     *string       `json:"lastName,omitempty"`
	Transmission *Transmission `json:"transmission,omitempty"`
}

type Scenario struct {
	ScenarioID      string     `json:"scenarioID"`
	Name            string     `json:"name"`
	EnvironmentType string     `json:"environmentType"`
	Difficulty      Difficulty `json:"difficulty"`
}

// TrainingSession is a scheduled VR driving session.
type TrainingSession struct {
	ID       int64    `json:"id"`
	Scenario Scenario `json:"scenario"`
	Location string   `json:"location"`
	Date     Date     `json:"date"`
}

type SessionUpdate struct {
	Scenario *Scenario `json:"scenario,omitempty"`
	Location *string   `json:"location,omitempty"`
	Date     *Date     `json:"date,omitempty"`
}

// Registration books a user onto a training session.
type Registration struct {
	ID               int64            `json:"id"`
	Feedback         string           `json:"feedback"`
	Completed        bool             `json:"completed"`
	Paid             bool             `json:"paid"`
	Score            float64          `json:"score"`
	TransmissionType Transmission     `json:"transmissionType,omitempty"`
	Session          *TrainingSession `json:"session,omitempty"`
	User             *User            `json:"user,omitempty"`
}

type RegistrationUpdate struct {
	Feedback         *string       `json:"feedback,omitempty"`
	Completed        *bool         `json:"completed,omitempty"`
	Paid             *bool         `json:"paid,omitempty"`
	Score            *float64      `json:"score,omitempty"`
	TransmissionType *Transmission `json:"transmissionType,omitempty"`
}
