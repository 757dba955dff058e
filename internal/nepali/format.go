package nepali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownFormatStyle is returned for a style key outside the supported set.
var ErrUnknownFormatStyle = errors.New("unknown date format style")

// Style selects how a Date is rendered.
type Style string

const (
	StyleShort  Style = "short"   // 2082/01/01
	StyleFullEn Style = "full_en" // Baisakh 1, 2082
	StyleFullNe Style = "full_ne" // बैशाख १, २०८२
)

// Styles returns every supported style.
func Styles() []Style {
	return []Style{StyleShort, StyleFullEn, StyleFullNe}
}

// ParseStyle converts a style key to a Style, rejecting unknown keys.
// An empty key selects StyleShort.
func ParseStyle(key string) (Style, error) {
	if key == "" {
		return StyleShort, nil
	}
	for _, s := range Styles() {
		if string(s) == key {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormatStyle, key)
}

var monthNamesEn = [12]string{
	"Baisakh", "Jestha", "Asar", "Shrawan", "Bhadra", "Asoj",
	"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
}

var monthNamesNe = [12]string{
	"बैशाख", "जेठ", "असार", "साउन", "भदौ", "असोज",
	"कात्तिक", "मंसिर", "पुष", "माघ", "फागुन", "चैत",
}

// MonthName returns the English name of a BS month, or "" if month is out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNamesEn[month-1]
}

// MonthNameNe returns the Nepali name of a BS month, or "" if month is out of range.
func MonthNameNe(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNamesNe[month-1]
}

// Format renders d in the given style.
func (d Date) Format(style Style) (string, error) {
	switch style {
	case StyleShort:
		return d.String(), nil
	case StyleFullEn:
		return fmt.Sprintf("%s %d, %d", MonthName(d.Month), d.Day, d.Year), nil
	case StyleFullNe:
		return fmt.Sprintf("%s %s, %s", MonthNameNe(d.Month), devanagari(d.Day), devanagari(d.Year)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormatStyle, string(style))
	}
}

// devanagari writes n using Devanagari digits.
func devanagari(n int) string {
	var b strings.Builder
	for _, r := range strconv.Itoa(n) {
		if r >= '0' && r <= '9' {
			b.WriteRune('०' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
