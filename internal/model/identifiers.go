// Package model implements the tournament state machine: players, rounds,
// pairings, scoring, settings, and the single apply_op mutation entry point.
package model

import (
	"crypto/sha1"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TypeID is an opaque 128-bit identifier tagged by its referent type at
// compile time. The type parameter carries no runtime weight; it exists so
// a PlayerID and a RoundID can't be swapped by accident.
type TypeID[T any] struct {
	id uuid.UUID
}

// NilID returns the zero-value identifier for T.
func NilID[T any]() TypeID[T] {
	return TypeID[T]{}
}

// IDFrom wraps an existing uuid.UUID as a TypeID[T], e.g. when parsing one
// off the wire.
func IDFrom[T any](id uuid.UUID) TypeID[T] {
	return TypeID[T]{id: id}
}

func (t TypeID[T]) UUID() uuid.UUID { return t.id }
func (t TypeID[T]) IsNil() bool     { return t.id == uuid.Nil }
func (t TypeID[T]) String() string  { return t.id.String() }

func (t TypeID[T]) MarshalText() ([]byte, error) {
	return []byte(t.id.String()), nil
}

func (t *TypeID[T]) UnmarshalText(text []byte) error {
	id, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	t.id = id
	return nil
}

// IDFromItem derives a deterministic identifier for T from a salt and an
// arbitrary hashable payload. Two nodes that apply the same FullOp (same
// salt, same op) compute identical ids for every entity the op creates.
//
// No wall clock and no global random source are read here: the only
// entropy is the caller-supplied salt, and it must be stamped exactly once
// by the op's author, never inside the state machine itself.
func IDFromItem[T any](salt time.Time, item any) TypeID[T] {
	h := sha1.New()
	h.Write([]byte(salt.Format(time.RFC3339Nano)))
	payload, err := json.Marshal(item)
	if err != nil {
		// Every payload passed through apply_op is a concrete struct with
		// json tags; a marshal failure here means a programmer error, not
		// a runtime condition callers can recover from.
		panic("model: id_from_item: payload does not marshal: " + err.Error())
	}
	h.Write(payload)
	return TypeID[T]{id: uuid.NewSHA1(uuid.Nil, h.Sum(nil))}
}

// Referent tag types. These never hold data; they exist only to
// instantiate TypeID. They're named distinctly from the real domain
// structs (Player, Round, Tournament, Operation) they tag, since a type
// can't be declared twice in the same package. Exported (rather than
// unexported) so other packages can still spell out the type parameter
// explicitly, e.g. IDFrom[TournamentTag](u).
type (
	PlayerTag     struct{}
	RoundTag      struct{}
	TournamentTag struct{}
	OpTag         struct{}
	AccountTag    struct{}
)

type (
	PlayerID     = TypeID[PlayerTag]
	RoundID      = TypeID[RoundTag]
	TournamentID = TypeID[TournamentTag]
	OpID         = TypeID[OpTag]
	AccountID    = TypeID[AccountTag]
)
