package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"confreg/internal/registration/ident"
	"confreg/internal/registration/models"
)

func TestTierPrice(t *testing.T) {
	tests := map[string]int64{
		"Delegate":                      2000,
		"Delegate With Lunch":           2500,
		"Delegate + Banquet":            3500,
		"Delegate With Lunch + Banquet": 4000,
		"RC Member":                     5000,
		"Student":                       1000,
		"Student With Lunch":            1500,
	}
	for category, want := range tests {
		t.Run(category, func(t *testing.T) {
			assert.Equal(t, want, TierPrice(category))
		})
	}
}

func TestOffersFor(t *testing.T) {
	t.Run("delegate gets every missing component and membership", func(t *testing.T) {
		assert.Equal(t, []models.Offer{
			{Label: LabelLunchAddOn, Amount: 500},
			{Label: LabelBanquetAddOn, Amount: 1500},
			{Label: LabelRCUpgrade, Amount: 3000},
		}, OffersFor("Delegate"))
	})

	t.Run("delegate with lunch is not offered the meal again", func(t *testing.T) {
		assert.Equal(t, []models.Offer{
			{Label: LabelBanquetAddOn, Amount: 1500},
			{Label: LabelRCUpgrade, Amount: 2500},
		}, OffersFor("Delegate With Lunch"))
	})

	t.Run("full delegate may still become a member", func(t *testing.T) {
		assert.Equal(t, []models.Offer{
			{Label: LabelRCUpgrade, Amount: 1000},
		}, OffersFor("Delegate With Lunch + Banquet"))
	})

	t.Run("student only gets the meal", func(t *testing.T) {
		assert.Equal(t, []models.Offer{
			{Label: LabelLunchAddOn, Amount: 500},
		}, OffersFor("Student"))
	})

	t.Run("student with lunch gets nothing", func(t *testing.T) {
		assert.Empty(t, OffersFor("Student With Lunch"))
	})

	t.Run("rc member gets nothing", func(t *testing.T) {
		assert.Empty(t, OffersFor("RC Member"))
	})
}

func TestIsAddOn(t *testing.T) {
	assert.True(t, IsAddOn("Banquet Pass (Add-on)"))
	assert.True(t, IsAddOn("RC Member (Upgrade)"))
	assert.False(t, IsAddOn("Delegate"))
}

func TestAllowedForStudent(t *testing.T) {
	assert.True(t, AllowedForStudent(LabelLunchAddOn))
	assert.False(t, AllowedForStudent(LabelBanquetAddOn))
	assert.False(t, AllowedForStudent(LabelRCUpgrade))
}

func TestHospitalityIsPricedAndPrefixedAsBanquet(t *testing.T) {
	const category = "Delegate Hospitality"

	assert.Equal(t, int64(PriceDelegate+PriceBanquet), TierPrice(category))
	assert.NotContains(t, OffersFor(category), models.Offer{Label: LabelBanquetAddOn, Amount: PriceBanquet})
	assert.Equal(t, ident.PrefixDelegateBanquet, ident.Prefix(category))
}
