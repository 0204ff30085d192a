package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Snapshot.Subtotal Tests
// ============================================================================

func TestSubtotal_SingleLine(t *testing.T) {
	s := Snapshot{
		{UnitPrice: 25000, Quantity: 2},
	}
	assert.Equal(t, int64(50000), s.Subtotal())
}

func TestSubtotal_MultipleLines(t *testing.T) {
	s := Snapshot{
		{UnitPrice: 25000, Quantity: 2},
		{UnitPrice: 40000, Quantity: 1},
		{UnitPrice: 10000, Quantity: 5},
	}
	// 50000 + 40000 + 50000 = 140000
	assert.Equal(t, int64(140000), s.Subtotal())
}

func TestSubtotal_EmptySnapshot(t *testing.T) {
	s := Snapshot{}
	assert.Equal(t, int64(0), s.Subtotal())
}

func TestSubtotal_NilSnapshot(t *testing.T) {
	var s Snapshot
	assert.Equal(t, int64(0), s.Subtotal())
}

func TestSubtotal_ZeroQuantity(t *testing.T) {
	s := Snapshot{
		{UnitPrice: 9000, Quantity: 0},
	}
	assert.Equal(t, int64(0), s.Subtotal())
}

// ============================================================================
// Snapshot.TotalItems Tests
// ============================================================================

func TestTotalItems_MultipleLines(t *testing.T) {
	s := Snapshot{
		{Quantity: 2},
		{Quantity: 3},
		{Quantity: 1},
	}
	assert.Equal(t, 6, s.TotalItems())
}

func TestTotalItems_EmptySnapshot(t *testing.T) {
	s := Snapshot{}
	assert.Equal(t, 0, s.TotalItems())
}

func TestTotalItems_SingleLine(t *testing.T) {
	s := Snapshot{{Quantity: 4}}
	assert.Equal(t, 4, s.TotalItems())
}

// ============================================================================
// Snapshot.FindLine Tests
// ============================================================================

func TestFindLine_Found(t *testing.T) {
	s := Snapshot{
		{ProductID: "prod-1"},
		{ProductID: "prod-2"},
	}
	assert.Equal(t, 0, s.FindLine("prod-1"))
	assert.Equal(t, 1, s.FindLine("prod-2"))
}

func TestFindLine_NotFound(t *testing.T) {
	s := Snapshot{
		{ProductID: "prod-1"},
	}
	assert.Equal(t, -1, s.FindLine("prod-999"))
}

func TestFindLine_EmptySnapshot(t *testing.T) {
	s := Snapshot{}
	assert.Equal(t, -1, s.FindLine("prod-1"))
}

// ============================================================================
// Snapshot.Clone Tests
// ============================================================================

func TestClone_Independent(t *testing.T) {
	s := Snapshot{
		{ProductID: "prod-1", Quantity: 1},
	}
	c := s.Clone()
	c[0].Quantity = 99
	assert.Equal(t, 1, s[0].Quantity)
	assert.Equal(t, 99, c[0].Quantity)
}

func TestClone_Nil(t *testing.T) {
	var s Snapshot
	assert.Nil(t, s.Clone())
}

// ============================================================================
// Session Tests
// ============================================================================

func TestSession_AuthenticatedKey(t *testing.T) {
	s := Session{CustomerID: "cust-1", DeviceID: "dev-1"}
	assert.True(t, s.Authenticated())
	assert.Equal(t, "customer:cust-1", s.Key())
}

func TestSession_GuestKey(t *testing.T) {
	s := Session{DeviceID: "dev-1"}
	assert.False(t, s.Authenticated())
	assert.Equal(t, "device:dev-1", s.Key())
}

func TestSession_Valid(t *testing.T) {
	assert.True(t, Session{CustomerID: "cust-1"}.Valid())
	assert.True(t, Session{DeviceID: "dev-1"}.Valid())
	assert.False(t, Session{}.Valid())
}
