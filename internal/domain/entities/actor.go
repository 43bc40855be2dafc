package entities

import (
	"encoding/json"
	"fmt"

	"github.com/navayuwa/nes-core/internal/domain/identifiers"
)

// Actor is the attributed author of a change: a human editor, an import
// job or a system process.
type Actor struct {
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
}

// ID returns the computed actor identifier.
func (a *Actor) ID() string {
	return identifiers.BuildActorID(a.Slug)
}

// Validate checks that the actor slug is well formed.
func (a *Actor) Validate() error {
	if !identifiers.IsValidSlug(a.Slug) {
		return fmt.Errorf("%w: actor slug %q must be %d-%d lowercase hyphenated characters",
			ErrInvalidRecord, a.Slug, identifiers.MinSlugLength, identifiers.MaxSlugLength)
	}
	return nil
}

// actorAlias breaks marshalling recursion.
type actorAlias Actor

type actorJSON struct {
	ID string `json:"id"`
	actorAlias
}

// MarshalJSON adds the computed id to the serialized actor.
func (a Actor) MarshalJSON() ([]byte, error) {
	return json.Marshal(actorJSON{ID: (&a).ID(), actorAlias: actorAlias(a)})
}

// UnmarshalJSON reads an actor, ignoring any stored id.
func (a *Actor) UnmarshalJSON(data []byte) error {
	var wire actorJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = Actor(wire.actorAlias)
	return nil
}
