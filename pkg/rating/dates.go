package rating

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnrecognizedDate is returned when a date string matches none of the
// formats archive.org is known to emit. Callers skip the record and continue.
var ErrUnrecognizedDate = errors.New("unrecognized date format")

// Archive.org date formats, checked in order.
var (
	isoDate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	looseDate = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	usDate    = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

// NormalizeDate canonicalizes the date formats found in archive.org metadata
// to YYYY-MM-DD:
//
//	"1977-05-08T00:00:00Z" -> "1977-05-08"
//	"1977-5-8"             -> "1977-05-08"
//	"05/08/1977"           -> "1977-05-08"
func NormalizeDate(raw string) (string, error) {
	// Drop any time-of-day component.
	s, _, _ := strings.Cut(raw, "T")

	switch {
	case isoDate.MatchString(s):
		return s, nil
	case looseDate.MatchString(s):
		parts := strings.Split(s, "-")
		return fmt.Sprintf("%s-%s-%s", parts[0], pad2(parts[1]), pad2(parts[2])), nil
	case usDate.MatchString(s):
		parts := strings.Split(s, "/")
		return fmt.Sprintf("%s-%s-%s", parts[2], pad2(parts[0]), pad2(parts[1])), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnrecognizedDate, raw)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ShowKey builds the grouping key for a show from its normalized date and
// venue. The exact format matters: re-runs must produce identical keys.
func ShowKey(normalizedDate, venue string) string {
	return normalizedDate + "_" + strings.ReplaceAll(venue, " ", "_")
}
