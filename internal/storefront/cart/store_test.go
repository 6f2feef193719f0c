package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-sessions/internal/session"
)

var (
	stitch    = session.UnitDescriptor{Name: "Chaveiro Stitch", UnitPriceMinorUnits: 1500, Currency: "brl"}
	toothless = session.UnitDescriptor{Name: "Chaveiro Toothless", UnitPriceMinorUnits: 1000, Currency: "BRL"}
	pikachu   = session.UnitDescriptor{Name: "Pikachu", UnitPriceMinorUnits: 500, Currency: "USD"}
)

func TestAdd(t *testing.T) {
	t.Run("new product is appended with normalized currency", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("k1", stitch, 1))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, session.CartItem{
			ProductID: "k1", Name: "Chaveiro Stitch", UnitPriceMinorUnits: 1500, Currency: "BRL", Quantity: 1,
		}, items[0])
	})

	t.Run("existing product increments instead of appending", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("k1", stitch, 1))
		require.NoError(t, s.Add("k2", toothless, 1))
		require.NoError(t, s.Add("k1", stitch, 2))

		items := s.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "k1", items[0].ProductID)
		assert.Equal(t, int64(3), items[0].Quantity)
	})

	t.Run("negative increment may lower but not empty a line", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("k1", stitch, 3))
		require.NoError(t, s.Add("k1", stitch, -2))
		assert.Equal(t, int64(1), s.TotalItemCount())

		err := s.Add("k1", stitch, -1)
		assert.ErrorIs(t, err, session.ErrInvalidQuantity)
		assert.Equal(t, int64(1), s.TotalItemCount())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		s := NewStore()
		assert.ErrorIs(t, s.Add("k1", stitch, 0), session.ErrInvalidQuantity)
		assert.ErrorIs(t, s.Add("k1", session.UnitDescriptor{Name: "x", UnitPriceMinorUnits: -1, Currency: "BRL"}, 1), session.ErrInvalidPrice)
		assert.ErrorIs(t, s.Add("k1", session.UnitDescriptor{Name: "x", UnitPriceMinorUnits: 1, Currency: "R$"}, 1), session.ErrInvalidCurrency)
		assert.ErrorIs(t, s.Add(" ", stitch, 1), session.ErrInvalidRequest)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("zero price is accepted by the store", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Add("gift", session.UnitDescriptor{Name: "Brinde", Currency: "BRL"}, 1))
		assert.Equal(t, 1, s.Len())
	})
}

func TestSetQuantity(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("k1", stitch, 1))
	require.NoError(t, s.Add("k2", toothless, 1))
	require.NoError(t, s.Add("k3", stitch, 1))

	require.NoError(t, s.SetQuantity("k1", 4))
	total1, _, err := s.TotalAmountMinorUnits()
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity("k1", 4))
	total2, _, err := s.TotalAmountMinorUnits()
	require.NoError(t, err)
	assert.Equal(t, total1, total2)

	assert.ErrorIs(t, s.SetQuantity("k1", -1), session.ErrInvalidQuantity)
	assert.ErrorIs(t, s.SetQuantity("missing", 2), session.ErrInvalidQuantity)
	require.NoError(t, s.SetQuantity("missing", 0))

	require.NoError(t, s.SetQuantity("k2", 0))
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "k1", items[0].ProductID)
	assert.Equal(t, "k3", items[1].ProductID)

	// index stays consistent after removal from the middle
	require.NoError(t, s.SetQuantity("k3", 5))
	assert.Equal(t, int64(5), s.Items()[1].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("k1", stitch, 2))
	require.NoError(t, s.Add("k2", toothless, 1))

	s.Remove("absent")
	assert.Equal(t, 2, s.Len())

	s.Remove("k1")
	assert.Equal(t, int64(1), s.TotalItemCount())

	require.NoError(t, s.Add("k1", stitch, 1))
	assert.Equal(t, "k1", s.Items()[1].ProductID)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(0), s.TotalItemCount())
	require.NoError(t, s.Add("k1", stitch, 1))
	assert.Equal(t, 1, s.Len())
}

func TestTotals(t *testing.T) {
	s := NewStore()
	total, cur, err := s.TotalAmountMinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Equal(t, "", cur)

	require.NoError(t, s.Add("k1", stitch, 2))
	require.NoError(t, s.Add("k2", toothless, 3))
	assert.Equal(t, int64(5), s.TotalItemCount())

	total, cur, err = s.TotalAmountMinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(2*1500+3*1000), total)
	assert.Equal(t, "BRL", cur)

	require.NoError(t, s.Add("p1", pikachu, 1))
	_, _, err = s.TotalAmountMinorUnits()
	assert.ErrorIs(t, err, session.ErrMixedCurrency)
}

func TestTotalsFollowMutationSequence(t *testing.T) {
	s := NewStore()
	ops := []func(){
		func() { _ = s.Add("k1", stitch, 1) },
		func() { _ = s.Add("k2", toothless, 2) },
		func() { _ = s.SetQuantity("k1", 3) },
		func() { s.Remove("k2") },
		func() { _ = s.Add("k2", toothless, 1) },
		func() { _ = s.SetQuantity("k2", 0) },
		func() { _ = s.Add("k3", stitch, 4) },
	}
	for i, op := range ops {
		op()
		var want int64
		for _, it := range s.Items() {
			want += it.UnitPriceMinorUnits * it.Quantity
		}
		got, _, err := s.TotalAmountMinorUnits()
		require.NoError(t, err)
		assert.Equal(t, want, got, "after op %d", i)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("k1", stitch, 1))

	snap := s.Snapshot()
	require.NoError(t, s.SetQuantity("k1", 9))
	s.Clear()

	require.Len(t, snap, 1)
	assert.Equal(t, int64(1), snap[0].Quantity)
}
