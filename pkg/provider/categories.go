package provider

// Uncategorized is used when the provider sent no category or one we do not know.
const Uncategorized = "Uncategorized"

// categoryMap maps provider primary categories onto the application's fixed taxonomy.
var categoryMap = map[string]string{
	"INCOME":                    "Income",
	"TRANSFER_IN":               "Income",
	"TRANSFER_OUT":              "Transfers",
	"BANK_FEES":                 "Fees",
	"ENTERTAINMENT":             "Entertainment",
	"FOOD_AND_DRINK":            "Food",
	"TRAVEL":                    "Transportation",
	"RENT_AND_UTILITIES":        "Bills",
	"LOAN_PAYMENTS":             "Debt Payments",
	"GENERAL_MERCHANDISE":       "Shopping",
	"HOME_IMPROVEMENT":          "Home",
	"MEDICAL":                   "Health",
	"PERSONAL_CARE":             "Shopping",
	"GENERAL_SERVICES":          "Bills",
	"GOVERNMENT_AND_NON_PROFIT": "Government",
	"TRANSPORTATION":            "Transportation",
	"OTHER":                     "Other",
}

// MapCategory is case-sensitive: "food_and_drink" is not FOOD_AND_DRINK.
func MapCategory(primary string) string {
	if c, ok := categoryMap[primary]; ok {
		return c
	}
	return Uncategorized
}
