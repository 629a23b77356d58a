// Package ident derives registration identifiers from free-text category
// labels. An identifier is a category prefix followed by a numeric suffix; the
// suffix is stable for the life of a registrant and survives upgrades.
package ident

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	PrefixRCMember             = "RC"
	PrefixDelegateLunchBanquet = "DLB"
	PrefixDelegateBanquet      = "DB"
	PrefixDelegateLunch        = "DL"
	PrefixDelegate             = "D"
	PrefixStudentLunchBanquet  = "SLB"
	PrefixStudentBanquet       = "SB"
	PrefixStudentLunch         = "SL"
	PrefixStudent              = "S"
	PrefixBanquet              = "BAN"
	PrefixTrader               = "TR"
	PrefixFallback             = "REG"
)

// Prefix maps a category label to its identifier prefix. Matching is
// case-insensitive and the first rule that matches wins.
func Prefix(category string) string {
	label := strings.ToUpper(category)
	hasLunch := HasLunch(label)
	hasBanquet := HasBanquet(label)

	switch {
	case strings.Contains(label, "RC MEMBER"):
		return PrefixRCMember
	case strings.Contains(label, "DELEGATE"):
		switch {
		case hasLunch && hasBanquet:
			return PrefixDelegateLunchBanquet
		case hasBanquet:
			return PrefixDelegateBanquet
		case hasLunch:
			return PrefixDelegateLunch
		}
		return PrefixDelegate
	case IsStudent(label):
		switch {
		case hasLunch && hasBanquet:
			return PrefixStudentLunchBanquet
		case hasBanquet:
			return PrefixStudentBanquet
		case hasLunch:
			return PrefixStudentLunch
		}
		return PrefixStudent
	case hasBanquet:
		return PrefixBanquet
	case IsTrader(label):
		return PrefixTrader
	}
	return PrefixFallback
}

// HasLunch reports whether the category includes the meal.
func HasLunch(category string) bool {
	return strings.Contains(strings.ToUpper(category), "WITH LUNCH")
}

// HasBanquet reports whether the category includes the banquet. Hospitality
// passes carry the banquet.
func HasBanquet(category string) bool {
	label := strings.ToUpper(category)
	return strings.Contains(label, "BANQUET") || strings.Contains(label, "HOSPITALITY")
}

// IsStudent reports whether the label names a student or intern category.
func IsStudent(category string) bool {
	label := strings.ToUpper(category)
	return strings.Contains(label, "STUDENT") || strings.Contains(label, "INTERN")
}

// IsTrader reports whether the label names a trade or vendor category.
func IsTrader(category string) bool {
	label := strings.ToUpper(category)
	return strings.Contains(label, "TRADER") || strings.Contains(label, "VENDOR")
}

// Derive returns the identifier for category. With an existing identifier the
// numeric suffix is carried over under the new prefix; otherwise a fresh
// suffix is minted from now.
func Derive(category, existingID string, now time.Time) string {
	prefix := Prefix(category)
	if suffix := Suffix(existingID); suffix != "" {
		return prefix + suffix
	}
	return prefix + strconv.FormatInt(defaultSequence.next(now), 10)
}

// Suffix returns the trailing digits of id, or "" when there are none.
func Suffix(id string) string {
	id = strings.TrimSpace(id)
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	return id[i:]
}

// sequence hands out strictly increasing millisecond stamps so two
// registrations in the same millisecond never collide in-process.
type sequence struct {
	mu   sync.Mutex
	last int64
}

var defaultSequence = &sequence{}

func (s *sequence) next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := now.UnixMilli()
	if v <= s.last {
		v = s.last + 1
	}
	s.last = v
	return v
}
