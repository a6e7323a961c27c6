// Package calendar provides the civil date and year-month value types used
// for budget months and ledger record dates.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	MinYear = 1900
	MaxYear = 2100

	dateLayout = "2006-01-02"
)

var (
	ErrMonthFormat = errors.New("month must be in YYYY-MM format")
	ErrMonthNumber = errors.New("month must be between 01 and 12")
	ErrMonthYear   = fmt.Errorf("year must be between %d and %d", MinYear, MaxYear)
	ErrDateFormat  = errors.New("date must be in YYYY-MM-DD format")
)

var monthRE = regexp.MustCompile(`^\d{4}-\d{2}$`)

// YearMonth identifies a calendar month. The zero value is not a valid month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth accepts exactly YYYY-MM with month 01..12 and year 1900..2100.
// The returned error is one of ErrMonthFormat, ErrMonthNumber or ErrMonthYear.
func ParseYearMonth(s string) (YearMonth, error) {
	if !monthRE.MatchString(s) {
		return YearMonth{}, ErrMonthFormat
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	if month < 1 || month > 12 {
		return YearMonth{}, ErrMonthNumber
	}
	if year < MinYear || year > MaxYear {
		return YearMonth{}, ErrMonthYear
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month t falls in, evaluated in UTC.
func MonthOf(t time.Time) YearMonth {
	u := t.UTC()
	return YearMonth{Year: u.Year(), Month: u.Month()}
}

func (ym YearMonth) IsZero() bool { return ym.Year == 0 && ym.Month == 0 }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// First is the first day of the month.
func (ym YearMonth) First() Date {
	return Date{time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)}
}

// Next is the month after ym; December rolls into January of the next year.
func (ym YearMonth) Next() YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Range returns the half-open interval [first day of ym, first day of next month).
func (ym YearMonth) Range() (start, end Date) {
	return ym.First(), ym.Next().First()
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// Value stores the month as its YYYY-MM text.
func (ym YearMonth) Value() (driver.Value, error) {
	return ym.String(), nil
}

func (ym *YearMonth) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return ym.UnmarshalText([]byte(v))
	case []byte:
		return ym.UnmarshalText(v)
	case nil:
		*ym = YearMonth{}
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into YearMonth", src)
	}
}

// Date is a civil date held as UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrDateFormat
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// YearMonth is the month d falls in.
func (d Date) YearMonth() YearMonth { return MonthOf(d.Time) }

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// Within reports whether d lies in [start, end).
func (d Date) Within(start, end Date) bool {
	return !d.Time.Before(start.Time) && d.Time.Before(end.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrDateFormat
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}
