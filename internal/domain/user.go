package domain

// Profile is the current user's profile as returned by the platform backend.
// It is replaced wholesale on every successful fetch or update; the storefront
// never merges partial profile data.
type Profile struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Addresses []Address `json:"addresses"`
}

// Address is a saved shipping address inside a profile.
type Address struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Landmark  string `json:"landmark,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"isDefault"`
}

// DefaultAddress returns the address flagged as default. The second return
// is false when no address carries the flag.
func (p Profile) DefaultAddress() (Address, bool) {
	for _, a := range p.Addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

// AddressByID looks up an address in the profile by its identifier.
func (p Profile) AddressByID(id string) (Address, bool) {
	for _, a := range p.Addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
