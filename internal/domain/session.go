package domain

// Session identifies the shopper behind a request. The API gateway validates
// credentials upstream and injects the customer id for authenticated shoppers;
// every client carries a stable device id.
type Session struct {
	CustomerID string `json:"customer_id,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

// Authenticated reports whether the session belongs to a signed-in customer.
func (s Session) Authenticated() bool {
	return s.CustomerID != ""
}

// Key returns the cart-store key for this session. Authenticated and guest
// carts are fully independent, so the key changes across login and logout.
func (s Session) Key() string {
	if s.Authenticated() {
		return "customer:" + s.CustomerID
	}
	return "device:" + s.DeviceID
}

// Valid reports whether the session carries at least one identity.
func (s Session) Valid() bool {
	return s.CustomerID != "" || s.DeviceID != ""
}
