// Package timestamp resolves the timestamp shapes a store can hand back into a
// single value that always renders, even when the source is missing or unknown.
package timestamp

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DisplayLayout renders as "Oct 17, 2026, 3:04 PM".
const DisplayLayout = "Jan 2, 2006, 3:04 PM"

const Unknown = "Unknown date"

type Kind int

const (
	KindUnknown Kind = iota
	KindStore
	KindTime
)

type Value struct {
	kind  Kind
	store pgtype.Timestamptz
	plain time.Time
}

func FromStore(ts pgtype.Timestamptz) Value {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return Value{}
	}
	return Value{kind: KindStore, store: ts}
}

func FromTime(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, plain: t}
}

// Resolve is called once at the store boundary. Anything it does not
// recognise becomes KindUnknown.
func Resolve(v any) Value {
	switch ts := v.(type) {
	case Value:
		return ts
	case pgtype.Timestamptz:
		return FromStore(ts)
	case *pgtype.Timestamptz:
		if ts == nil {
			return Value{}
		}
		return FromStore(*ts)
	case time.Time:
		return FromTime(ts)
	case *time.Time:
		if ts == nil {
			return Value{}
		}
		return FromTime(*ts)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Value{}
		}
		return FromTime(parsed)
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) Valid() bool {
	return v.kind != KindUnknown
}

// Time returns the zero time for KindUnknown.
func (v Value) Time() time.Time {
	switch v.kind {
	case KindStore:
		return v.store.Time
	case KindTime:
		return v.plain
	default:
		return time.Time{}
	}
}

// Format never fails: unknown values render as Unknown.
func (v Value) Format(loc *time.Location) string {
	if !v.Valid() {
		return Unknown
	}
	if loc == nil {
		loc = time.Local
	}
	return v.Time().In(loc).Format(DisplayLayout)
}

func (v Value) String() string {
	return v.Format(time.Local)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Time().Format(time.RFC3339Nano))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = Value{}
		return nil
	}
	*v = Resolve(*raw)
	return nil
}

// Store converts back to the column type for writes.
func (v Value) Store() pgtype.Timestamptz {
	if !v.Valid() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: v.Time(), Valid: true}
}
