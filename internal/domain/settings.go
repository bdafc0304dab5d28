package domain

// AppSettings is the singleton configuration document (Settings/general).
type AppSettings struct {
	AppName             string  `json:"appName" yaml:"app_name"`
	Slogan              string  `json:"slogan" yaml:"slogan"`
	ContactEmail        string  `json:"contactEmail" yaml:"contact_email"`
	ContactPhone        string  `json:"contactPhone" yaml:"contact_phone"`
	ContactAddress      string  `json:"contactAddress" yaml:"contact_address"`
	Currency            string  `json:"currency" yaml:"currency"`
	DefaultShippingFees float64 `json:"defaultShippingFees" yaml:"default_shipping_fees"`
	ServiceFees         float64 `json:"serviceFees" yaml:"service_fees"`
	IsMaintenanceMode   bool    `json:"isMaintenanceMode" yaml:"maintenance_mode"`
}

// DefaultSettings are used until the stored document is observed, and written when it is absent.
func DefaultSettings() AppSettings {
	return AppSettings{
		AppName:        "Atelier des pates",
		Slogan:         "Welcome to ATELIER DES PATES! What are you in the mood for?",
		ContactEmail:   "contact@atelierdespates.ci",
		ContactPhone:   "+225 07 00 00 00 00",
		ContactAddress: "Abidjan, Côte d'Ivoire",
		Currency:       "FCFA",
	}
}

// MergeSettings overlays every non-zero option of stored onto base.
// Fees and the maintenance flag are copied as-is because zero is a meaningful value for them.
func MergeSettings(base, stored AppSettings) AppSettings {
	out := base
	if stored.AppName != "" {
		out.AppName = stored.AppName
	}
	if stored.Slogan != "" {
		out.Slogan = stored.Slogan
	}
	if stored.ContactEmail != "" {
		out.ContactEmail = stored.ContactEmail
	}
	if stored.ContactPhone != "" {
		out.ContactPhone = stored.ContactPhone
	}
	if stored.ContactAddress != "" {
		out.ContactAddress = stored.ContactAddress
	}
	if stored.Currency != "" {
		out.Currency = stored.Currency
	}
	out.DefaultShippingFees = stored.DefaultShippingFees
	out.ServiceFees = stored.ServiceFees
	out.IsMaintenanceMode = stored.IsMaintenanceMode
	return out
}
