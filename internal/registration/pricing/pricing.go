// Package pricing holds the fee table and computes the add-ons and upgrades a
// registrant may still purchase. Amounts are whole rupees.
package pricing

import (
	"strings"

	"confreg/internal/registration/ident"
	"confreg/internal/registration/models"
)

const (
	PriceDelegate = 2000
	PriceStudent  = 1000
	PriceRCMember = 5000
	PriceLunch    = 500
	PriceBanquet  = 1500
)

const (
	LabelLunchAddOn   = "With Lunch (Add-on)"
	LabelBanquetAddOn = "Banquet Pass (Add-on)"
	LabelRCUpgrade    = "RC Member (Upgrade)"
)

// IsAddOn reports whether the category is a purchase on top of an existing
// registration rather than a new one.
func IsAddOn(category string) bool {
	label := strings.ToUpper(category)
	return strings.Contains(label, "ADD-ON") || strings.Contains(label, "UPGRADE")
}

// IsMembership reports whether the category grants RC membership.
func IsMembership(category string) bool {
	return strings.Contains(strings.ToUpper(category), "RC MEMBER")
}

// HasLunch reports whether the category already includes the meal. It is the
// same predicate that picks the identifier prefix.
func HasLunch(category string) bool {
	return ident.HasLunch(category)
}

// HasBanquet reports whether the category already includes the banquet.
func HasBanquet(category string) bool {
	return ident.HasBanquet(category)
}

// TierPrice is what the category is worth in the fee table.
func TierPrice(category string) int64 {
	if IsMembership(category) {
		return PriceRCMember
	}
	base := int64(PriceDelegate)
	if ident.IsStudent(category) {
		base = PriceStudent
	}
	if HasLunch(category) {
		base += PriceLunch
	}
	if HasBanquet(category) {
		base += PriceBanquet
	}
	return base
}

// OffersFor lists what the holder of category can still buy. Components that
// are already held are never offered. Students may only add the meal; RC
// members hold everything already.
func OffersFor(category string) []models.Offer {
	offers := []models.Offer{}
	if IsMembership(category) || ident.IsTrader(category) {
		return offers
	}

	if !HasLunch(category) {
		offers = append(offers, models.Offer{Label: LabelLunchAddOn, Amount: PriceLunch})
	}
	if ident.IsStudent(category) {
		return offers
	}

	if !HasBanquet(category) {
		offers = append(offers, models.Offer{Label: LabelBanquetAddOn, Amount: PriceBanquet})
	}
	if diff := PriceRCMember - TierPrice(category); diff > 0 {
		offers = append(offers, models.Offer{Label: LabelRCUpgrade, Amount: diff})
	}
	return offers
}

// AllowedForStudent reports whether a student registrant may buy the add-on.
func AllowedForStudent(addOn string) bool {
	return !HasBanquet(addOn) && !IsMembership(addOn)
}
