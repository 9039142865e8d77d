package billing

// Bill categories. Every bill belongs to exactly one category and carries an
// account type drawn from that category's closed set below.
const (
	CategoryJamaath  = "Jamaath"
	CategoryMadrassa = "Madrassa"
	CategoryLand     = "Land"
	CategoryNercha   = "Nercha"
	CategorySadhu    = "Sadhu"
)

// Bill statuses.
const (
	StatusPaid      = "Paid"
	StatusPending   = "Pending"
	StatusCancelled = "Cancelled"
)

// AccountTypes maps each category to its allowed account types.
var AccountTypes = map[string][]string{
	CategoryJamaath: {
		"Dua_Friday", "Donation", "Sunnath Fee", "Marriage Fee",
		"Product Turnover", "Rental_Basis", "Devotional Dedication",
		"Dead Fee", "New Membership", "Certificate Fee",
		"Eid ul Adha", "Eid al-Fitr",
	},
	CategoryMadrassa: {
		"Annual Fee", "Monthly Fee", "Madrassa Building", "Madrassa Others",
	},
	CategoryLand: {
		"Land Rent", "Land Lease", "Land Sale", "Land Others",
	},
	CategoryNercha: {
		"Nercha Donation", "Nercha Sponsorship", "Nercha Others",
	},
	CategorySadhu: {
		"Sadhu Fund", "Sadhu Donation", "Sadhu Others",
	},
}

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{"Cash", "Card", "UPI", "Bank Transfer", "Cheque"}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	_, ok := AccountTypes[c]
	return ok
}

// ValidAccountType reports whether accountType belongs to category's set.
func ValidAccountType(category, accountType string) bool {
	for _, t := range AccountTypes[category] {
		if t == accountType {
			return true
		}
	}
	return false
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known bill status.
func ValidStatus(s string) bool {
	return s == StatusPaid || s == StatusPending || s == StatusCancelled
}
