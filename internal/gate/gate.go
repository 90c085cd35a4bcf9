package gate

import "focustimer/internal/model"

// Capabilities is the static capability set for one tier. MaxLabels of 0
// means unlimited.
type Capabilities struct {
	MaxLabels    int
	RemoteSync   bool
	CSVExport    bool
	CustomColors bool
}

var byTier = map[model.Tier]Capabilities{
	model.TierFree: {
		MaxLabels: 3,
	},
	model.TierStandard: {
		MaxLabels:  12,
		RemoteSync: true,
		CSVExport:  true,
	},
	model.TierPro: {
		MaxLabels:    0,
		RemoteSync:   true,
		CSVExport:    true,
		CustomColors: true,
	},
}

// ForTier maps a billing-derived tier to its capability set. Unknown tiers
// degrade to free.
func ForTier(tier model.Tier) Capabilities {
	if caps, ok := byTier[tier]; ok {
		return caps
	}
	return byTier[model.TierFree]
}
