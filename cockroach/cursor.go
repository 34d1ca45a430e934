package cockroach

import (
	"fmt"
	"slices"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/neighborhq/neighbor/errs"
	"github.com/neighborhq/neighbor/types"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultPageSize = 25

// Cursor is an opaque keyset position: the row id plus the timestamp
// the listing is ordered by.
type Cursor struct {
	ID    string    `msgpack:"i"`
	Value time.Time `msgpack:"v"`
}

func EncodeCursor(cursor Cursor) (string, error) {
	b, err := msgpack.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("msgpack marshal cursor: %w", err)
	}

	return base58.Encode(b), nil
}

func DecodeCursor(s string) (Cursor, error) {
	var c Cursor

	b := base58.Decode(s)
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return c, errs.NewInvalidArgumentError("Cursor", "invalid cursor")
	}

	return c, nil
}

type PageArgs struct {
	First  *uint
	After  *Cursor
	Last   *uint
	Before *Cursor
}

func (args PageArgs) IsBackwards() bool {
	return args.Last != nil || args.Before != nil
}

// Size is the requested page size; queries fetch one extra row to
// detect another page.
func (args PageArgs) Size() uint {
	if args.IsBackwards() {
		return or(args.Last, defaultPageSize)
	}
	return or(args.First, defaultPageSize)
}

func ParsePageArgs(in types.PageArgs) (PageArgs, error) {
	var out PageArgs

	if in.After != nil {
		after, err := DecodeCursor(*in.After)
		if err != nil {
			return out, err
		}

		out.After = &after
	}

	if in.Before != nil {
		before, err := DecodeCursor(*in.Before)
		if err != nil {
			return out, err
		}

		out.Before = &before
	}

	out.First = in.First
	out.Last = in.Last

	return out, nil
}

// applyPageInfo modifies the given page in-place: it trims the
// look-ahead row and reverses the items for backwards pagination so
// they come out in display order.
func applyPageInfo[I any](page *types.Page[I], pageArgs PageArgs, cursorFunc func(item I) Cursor) error {
	l := uint(len(page.Items))
	if l == 0 {
		return nil
	}

	size := pageArgs.Size()
	if pageArgs.IsBackwards() {
		page.PageInfo.HasPreviousPage = l > size
		if page.PageInfo.HasPreviousPage {
			page.Items = page.Items[:size]
		}
		page.PageInfo.HasNextPage = pageArgs.Before != nil

		slices.Reverse(page.Items)
	} else {
		page.PageInfo.HasNextPage = l > size
		if page.PageInfo.HasNextPage {
			page.Items = page.Items[:size]
		}
		page.PageInfo.HasPreviousPage = pageArgs.After != nil
	}

	l = uint(len(page.Items))
	if l == 0 {
		return nil
	}

	startCursor := cursorFunc(page.Items[0])
	endCursor := cursorFunc(page.Items[l-1])

	if c, err := EncodeCursor(startCursor); err != nil {
		return fmt.Errorf("encode start cursor: %w", err)
	} else {
		page.PageInfo.StartCursor = &c
	}

	if c, err := EncodeCursor(endCursor); err != nil {
		return fmt.Errorf("encode end cursor: %w", err)
	} else {
		page.PageInfo.EndCursor = &c
	}

	return nil
}

func or[T any](a *T, b T) T {
	if a != nil {
		return *a
	}

	return b
}
