package domain

// CheckoutRequest carries the delivery and payment details submitted at
// checkout. Validation tags follow the API contract; the mobile money
// number is only required for mobile money methods and is checked in the
// service layer.
type CheckoutRequest struct {
	FullName          string `json:"full_name" validate:"required,min=2,max=120"`
	Phone             string `json:"phone" validate:"required,min=7,max=20"`
	Address           string `json:"address" validate:"required,min=5,max=500"`
	Notes             string `json:"notes,omitempty" validate:"max=1000"`
	PaymentMethod     string `json:"payment_method" validate:"required"`
	MobileMoneyNumber string `json:"mobile_money_number,omitempty" validate:"max=20"`
}

// VendorOrderGroup is the slice of a cart belonging to a single vendor,
// together with that vendor's share of the delivery fee.
type VendorOrderGroup struct {
	VendorID   string
	VendorName string
	Lines      []CartLine
	FeeShare   int64
}

// Subtotal sums the line totals of the group.
func (g VendorOrderGroup) Subtotal() int64 {
	var total int64
	for _, line := range g.Lines {
		total += line.LineTotal()
	}
	return total
}

// Total is the group subtotal plus its delivery fee share.
func (g VendorOrderGroup) Total() int64 {
	return g.Subtotal() + g.FeeShare
}

// PartitionByVendor splits a cart snapshot into per-vendor groups. Groups
// appear in the order each vendor is first seen in the snapshot, and every
// line lands in exactly one group.
func PartitionByVendor(snapshot Snapshot) []VendorOrderGroup {
	var groups []VendorOrderGroup
	index := make(map[string]int)
	for _, line := range snapshot {
		i, ok := index[line.VendorID]
		if !ok {
			i = len(groups)
			index[line.VendorID] = i
			groups = append(groups, VendorOrderGroup{
				VendorID:   line.VendorID,
				VendorName: line.VendorName,
			})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	return groups
}

// SplitDeliveryFee assigns each group an even share of the delivery fee.
// The remainder of the integer division goes to the earliest groups, one
// unit each, so the shares always sum to exactly fee.
func SplitDeliveryFee(groups []VendorOrderGroup, fee int64) {
	n := int64(len(groups))
	if n == 0 {
		return
	}
	base := fee / n
	remainder := fee % n
	for i := range groups {
		groups[i].FeeShare = base
		if int64(i) < remainder {
			groups[i].FeeShare++
		}
	}
}
