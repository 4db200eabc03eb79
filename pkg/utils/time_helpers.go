package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DateTimeLayout    = "2006-01-02 15:04:05"
	DisplayDate       = "02.01.2006"
	DisplayDateTime   = "02.01.2006 15:04"
	excelEpochSerial  = 25569 // 1970-01-01 в серийных датах Excel
	secondsPerDay     = 86400
	maxExcelSerialDay = 2958465 // 9999-12-31
)

// форматы дат, которые принимаются при импорте и в фильтрах
var importLayouts = []string{
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
}

// ParseFlexibleDate разбирает дату в одном из поддерживаемых форматов
// или серийное число Excel ("45292" или "45292.5").
func ParseFlexibleDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("пустая дата")
	}
	for _, layout := range importLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return ExcelSerialToTime(serial)
	}
	return time.Time{}, fmt.Errorf("неверный формат даты: %s", raw)
}

func ExcelSerialToTime(serial float64) (time.Time, error) {
	if serial <= 0 || serial > maxExcelSerialDay {
		return time.Time{}, fmt.Errorf("неверная серийная дата Excel: %v", serial)
	}
	seconds := math.Round((serial - excelEpochSerial) * secondsPerDay)
	t := time.Unix(int64(seconds), 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
}

// FormatDisplay - "dd.mm.yyyy HH:MM", пустая строка для nil.
func FormatDisplay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(DisplayDateTime)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Second)
}

// StartOfWeek - понедельник текущей недели.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ParseDayRange превращает пару "YYYY-MM-DD" в границы [from 00:00:00, to 23:59:59].
func ParseDayRange(from, to string) (time.Time, time.Time, error) {
	f, err := time.ParseInLocation(DateLayout, from, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("неверная дата начала: %w", err)
	}
	t, err := time.ParseInLocation(DateLayout, to, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("неверная дата окончания: %w", err)
	}
	return StartOfDay(f), EndOfDay(t), nil
}
