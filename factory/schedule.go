/*
Package factory converts JSON schedule requests into protocol configs.

PURPOSE:
  The storefront's protocol calculator posts a loosely typed form: strings
  for the frequency and time of day, integers for weekdays, an optional
  start date. The factory validates that shape and produces a typed
  protocol.Config, so nothing downstream ever sees an unknown frequency.

JSON SCHEMA:
  {
    "frequency": "custom",          // daily | eod | 2x/week | 3x/week | weekly | custom
    "time_of_day": "am",            // am | pm | both
    "duration_days": 28,            // <= 3660; zero or negative gives an empty schedule
    "custom_days": [1, 3, 5],       // 0=Sunday .. 6=Saturday, required for custom
    "start_date": "2025-01-06"      // optional, defaults to today in the factory's location
  }

VALIDATION:
  Two layers. Struct tags (go-playground/validator) reject malformed input
  with per-field messages; protocol.Config.Validate then enforces the
  domain rules (e.g. custom needs at least one weekday).

USAGE:
  f := factory.NewScheduleFactory(time.Local)
  cfg, err := f.ParseSchedule(body)
  sched, err := protocol.GenerateWithEOD(cfg)

SEE ALSO:
  - protocol/types.go: Config and enumerations
  - api/schedule_handlers.go: HTTP entry point
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/peptora/backoffice/calendar"
	"github.com/peptora/backoffice/protocol"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a schedule request.
type ScheduleJSON struct {
	Frequency    string `json:"frequency" validate:"required,oneof=daily eod 2x/week 3x/week weekly custom"`
	TimeOfDay    string `json:"time_of_day" validate:"required,oneof=am pm both"`
	DurationDays int    `json:"duration_days" validate:"lte=3660"`
	CustomDays   []int  `json:"custom_days,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	StartDate    string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ErrInvalidSchedule is returned for any schedule request the factory rejects.
var ErrInvalidSchedule = errors.New("invalid schedule request")

// ValidationError maps JSON field names to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := lo.Keys(e.Fields)
	sort.Strings(keys)
	parts := lo.Map(keys, func(k string, _ int) string { return k + ": " + e.Fields[k] })
	return "invalid schedule request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSchedule }

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts JSON schedule requests to protocol.Config.
type ScheduleFactory struct {
	location *time.Location
	validate *validator.Validate
}

// NewScheduleFactory creates a factory whose default start date is today in loc.
func NewScheduleFactory(loc *time.Location) *ScheduleFactory {
	if loc == nil {
		loc = time.Local
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &ScheduleFactory{location: loc, validate: v}
}

// ParseSchedule parses a JSON body into a protocol.Config.
func (f *ScheduleFactory) ParseSchedule(data []byte) (protocol.Config, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return protocol.Config{}, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// FromJSON validates sj and converts it to a protocol.Config.
func (f *ScheduleFactory) FromJSON(sj ScheduleJSON) (protocol.Config, error) {
	if err := f.validate.Struct(sj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return protocol.Config{}, toValidationError(verrs)
		}
		return protocol.Config{}, err
	}

	frequency, err := protocol.ParseFrequency(sj.Frequency)
	if err != nil {
		return protocol.Config{}, err
	}
	timeOfDay, err := protocol.ParseTimeOfDay(sj.TimeOfDay)
	if err != nil {
		return protocol.Config{}, err
	}

	cfg := protocol.Config{
		Frequency:    frequency,
		TimeOfDay:    timeOfDay,
		DurationDays: sj.DurationDays,
		Location:     f.location,
	}
	if frequency == protocol.Custom {
		cfg.CustomDays = lo.Uniq(lo.Map(sj.CustomDays, func(d int, _ int) time.Weekday { return time.Weekday(d) }))
		sort.Slice(cfg.CustomDays, func(i, j int) bool { return cfg.CustomDays[i] < cfg.CustomDays[j] })
	}
	if sj.StartDate != "" {
		cfg.StartDate, err = calendar.Parse(sj.StartDate)
		if err != nil {
			return protocol.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return protocol.Config{}, err
	}
	return cfg, nil
}

// ToJSON converts a protocol.Config back to its request shape.
func (f *ScheduleFactory) ToJSON(cfg protocol.Config) ScheduleJSON {
	sj := ScheduleJSON{
		Frequency:    string(cfg.Frequency),
		TimeOfDay:    string(cfg.TimeOfDay),
		DurationDays: cfg.DurationDays,
	}
	if cfg.Frequency == protocol.Custom {
		sj.CustomDays = lo.Map(cfg.CustomDays, func(d time.Weekday, _ int) int { return int(d) })
	}
	if !cfg.StartDate.IsZero() {
		sj.StartDate = cfg.StartDate.String()
	}
	return sj
}

func toValidationError(verrs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldName strips the struct prefix; custom_days[2] stays indexed.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "lte":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
