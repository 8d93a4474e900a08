package storage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/5-07/sweeten/internal"
)

// vitalFromData decodes a vitals document as the web client writes it:
// numbers may be stored as strings or "", insulin may be under "insulin",
// and updatedAt may be epoch milliseconds. A field that cannot be read is
// left empty and reported in the returned error; the entry is still usable.
func vitalFromData(id string, data map[string]any) (internal.VitalEntry, error) {
	e := internal.VitalEntry{Date: id}
	var errs []error

	number := func(keys ...string) *float64 {
		for _, k := range keys {
			n, err := coerceNumber(data[k])
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				continue
			}
			if n != nil {
				return n
			}
		}
		return nil
	}
	e.Glucose = number("glucose")
	e.InsulinUnits = number("insulinUnits", "insulin")
	e.Carbs = number("carbs")
	e.Steps = number("steps")
	e.Mood = coerceString(data["mood"])
	e.Notes = coerceString(data["notes"])
	e.UpdatedAt = coerceTime(data["updatedAt"])

	return e, errors.Join(errs...)
}

func coerceNumber(v any) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case float64:
		f = n
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New("not a finite number")
	}
	return &f, nil
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func coerceTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.UnixMilli(t).UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	case string:
		parsed, _ := time.Parse(time.RFC3339, t)
		return parsed
	default:
		return time.Time{}
	}
}

// decodeUsage reads one usage document through dataTo, logging and skipping
// documents that do not decode.
func decodeUsage(logger internal.Logger, id string, dataTo func(p interface{}) error) (internal.UsageRecord, bool) {
	var u internal.UsageRecord
	if err := dataTo(&u); err != nil {
		logger.Warnf("skipping malformed usage %s: %v", id, err)
		return internal.UsageRecord{}, false
	}
	u.ID = id
	return u, true
}
