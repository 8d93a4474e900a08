package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/5-07/sweeten/internal/service"
)

// formNumber decodes the form convention for optional numbers: a JSON
// number, null, "" or a numeric string.
type formNumber struct {
	value *float64
}

func (n *formNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		n.value = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			n.value = nil
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%q is not a number", s)
		}
		n.value = &f
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%s is not a number", b)
	}
	n.value = &f
	return nil
}

type vitalsRequest struct {
	Date         string     `json:"date"`
	Glucose      formNumber `json:"glucose"`
	InsulinUnits formNumber `json:"insulinUnits"`
	Carbs        formNumber `json:"carbs"`
	Steps        formNumber `json:"steps"`
	Mood         string     `json:"mood"`
	Notes        string     `json:"notes"`
}

func (r vitalsRequest) input() *service.VitalInput {
	return &service.VitalInput{
		Date:         r.Date,
		Glucose:      r.Glucose.value,
		InsulinUnits: r.InsulinUnits.value,
		Carbs:        r.Carbs.value,
		Steps:        r.Steps.value,
		Mood:         r.Mood,
		Notes:        r.Notes,
	}
}

type reminderRequest struct {
	Text string `json:"text"`
}
