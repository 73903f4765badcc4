package rules

import "siding-takeoff/core/trigger"

// FallbackRules is the minimum always-on accessory set used when the rule
// store is unreachable or unconfigured. The result is a fresh copy.
func FallbackRules() []Rule {
	return []Rule{
		{
			ID:              "fallback-housewrap",
			Name:            "House Wrap (9' x 150' roll)",
			Category:        "weather_barrier",
			SKU:             "HOUSEWRAP-9X150",
			Group:           "accessories",
			GroupOrder:      90,
			ItemOrder:       1,
			Trigger:         trigger.Always(),
			QuantityFormula: "ceiling(facade_sqft / 1350)",
			Unit:            "ROLL",
			Active:          true,
			Notes:           "1,350 SF per roll",
		},
		{
			ID:              "fallback-siding-nails",
			Name:            "Siding Nails (5 lb box)",
			Category:        "fasteners",
			SKU:             "NAILS-SIDING-5LB",
			Group:           "accessories",
			GroupOrder:      90,
			ItemOrder:       2,
			Trigger:         trigger.Always(),
			QuantityFormula: "ceiling(net_siding_area_sqft / 1000)",
			Unit:            "BOX",
			Active:          true,
			Notes:           "1 box per 1,000 SF of siding",
		},
		{
			ID:              "fallback-sealant",
			Name:            "Exterior Sealant (10 oz tube)",
			Category:        "sealant",
			SKU:             "CAULK-10OZ",
			Group:           "accessories",
			GroupOrder:      90,
			ItemOrder:       3,
			Trigger:         trigger.Always(),
			QuantityFormula: "ceiling((openings_perimeter_lf + corners_lf) / 25)",
			Unit:            "TUBE",
			Active:          true,
			Notes:           "1 tube per 25 LF of openings and corners",
		},
	}
}
