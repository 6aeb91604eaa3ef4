package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
)

const (
	CategoryStreaming Category = "streaming"
	CategorySoftware  Category = "software"
	CategorySaaS      Category = "saas"
	CategoryFitness   Category = "fitness"
	CategoryUtilities Category = "utilities"
	CategoryGaming    Category = "gaming"
	CategoryEducation Category = "education"
	CategoryOther     Category = "other"
)

// Categories lists every category in declaration order. Ranking ties are
// broken by this order, not by input order.
var Categories = []Category{
	CategoryStreaming,
	CategorySoftware,
	CategorySaaS,
	CategoryFitness,
	CategoryUtilities,
	CategoryGaming,
	CategoryEducation,
	CategoryOther,
}

type (
	BillingCycle string

	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Subscription is a single recurring charge owned by a user.
	// Price is denominated per one billing cycle.
	Subscription struct {
		ID          string
		UserID      string
		Name        string
		Price       Money
		Cycle       BillingCycle
		Category    Category
		NextBilling Date
		Active      bool
		Description string
		Logo        string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidCycle   = errors.New("invalid billing cycle")
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long (max 120 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 300 characters)")
)

// ParseCycle validates a billing cycle string.
func ParseCycle(s string) (BillingCycle, error) {
	switch BillingCycle(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidCycle
	}
}

// ParseCategory maps arbitrary input to a known category. Unknown values
// collapse to CategoryOther at the boundary and are never propagated.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return known
		}
	}
	return CategoryOther
}

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to calendar-day precision in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 120 {
		return ErrNameTooLong
	}
	if err := s.Price.Validate(); err != nil {
		return err
	}
	switch s.Cycle {
	case Monthly, Yearly:
	default:
		return ErrInvalidCycle
	}
	if err := s.NextBilling.Validate(); err != nil {
		return fmt.Errorf("invalid next billing date: %w", err)
	}
	if len(s.Description) > 300 {
		return ErrDescriptionTooLong
	}
	return nil
}

// MonthlyCents is the price normalized to one month. Yearly prices are
// divided by 12 with half-up rounding.
func (s Subscription) MonthlyCents() int64 {
	if s.Cycle == Monthly {
		return s.Price.Cents
	}
	return divideHalfUp(s.Price.Cents, 12)
}

// YearlyCents is the price normalized to one year.
func (s Subscription) YearlyCents() int64 {
	if s.Cycle == Yearly {
		return s.Price.Cents
	}
	return s.Price.Cents * 12
}
