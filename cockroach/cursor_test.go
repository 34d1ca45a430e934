package cockroach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neighborhq/neighbor/types"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		ID:    "9m4e2mr0ui3e8a215n4g",
		Value: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	encoded, err := EncodeCursor(want)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	got, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.True(t, want.Value.Equal(got.Value))
}

func TestDecodeCursor_Garbage(t *testing.T) {
	_, err := DecodeCursor("not-a-cursor")
	require.Error(t, err)
}

type pagedItem struct {
	ID string
	At time.Time
}

func itemCursor(it pagedItem) Cursor {
	return Cursor{ID: it.ID, Value: it.At}
}

func makeItems(n int) []pagedItem {
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	items := make([]pagedItem, n)
	for i := range items {
		items[i] = pagedItem{ID: string(rune('a' + i)), At: base.Add(time.Duration(i) * time.Minute)}
	}
	return items
}

func TestApplyPageInfo_ForwardTrimsLookAhead(t *testing.T) {
	first := uint(3)
	page := &types.Page[pagedItem]{Items: makeItems(4)}

	err := applyPageInfo(page, PageArgs{First: &first}, itemCursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	require.True(t, page.PageInfo.HasNextPage)
	require.False(t, page.PageInfo.HasPreviousPage)
	require.NotNil(t, page.PageInfo.StartCursor)
	require.NotNil(t, page.PageInfo.EndCursor)
}

func TestApplyPageInfo_ForwardLastPage(t *testing.T) {
	first := uint(3)
	page := &types.Page[pagedItem]{Items: makeItems(2)}

	err := applyPageInfo(page, PageArgs{First: &first}, itemCursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	require.False(t, page.PageInfo.HasNextPage)
}

func TestApplyPageInfo_BackwardsReverses(t *testing.T) {
	last := uint(3)
	// Backwards queries fetch newest-first; display order is
	// oldest-first.
	items := makeItems(4)
	reversed := []pagedItem{items[3], items[2], items[1], items[0]}
	page := &types.Page[pagedItem]{Items: reversed}

	err := applyPageInfo(page, PageArgs{Last: &last}, itemCursor)
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	require.True(t, page.PageInfo.HasPreviousPage)
	require.Equal(t, "b", page.Items[0].ID, "items come out oldest first")
	require.Equal(t, "d", page.Items[2].ID)
}

func TestApplyPageInfo_Empty(t *testing.T) {
	page := &types.Page[pagedItem]{}

	err := applyPageInfo(page, PageArgs{}, itemCursor)
	require.NoError(t, err)
	require.Nil(t, page.PageInfo.StartCursor)
	require.False(t, page.PageInfo.HasNextPage)
}

func TestDirectKey_Canonical(t *testing.T) {
	a, b := "9m4e2mr0ui3e8a215n4a", "9m4e2mr0ui3e8a215n4b"
	require.Equal(t, DirectKey(a, b), DirectKey(b, a), "direct key must not depend on argument order")
}
