package fixture

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// InteractionKind is the kind of interaction an actor requests.
type InteractionKind string

// Interaction kinds.
const (
	InteractionRemove  InteractionKind = "remove"
	InteractionReplace InteractionKind = "replace"
	InteractionInsert  InteractionKind = "insert"
)

// Intent is the actor's interaction intent.
type Intent string

// Actor intents. IntentHarm is hostile.
const (
	IntentHelp   Intent = "help"
	IntentDisarm Intent = "disarm"
	IntentGrab   Intent = "grab"
	IntentHarm   Intent = "harm"
)

// Hand identifies an actor's hand.
type Hand string

// Hands.
const (
	HandLeft  Hand = "left"
	HandRight Hand = "right"
)

// Item is an item instance with its traits.
type Item struct {
	ID     string   `json:"id"`
	Traits []string `json:"traits,omitempty"`
}

// Has reports whether the item carries trait.
func (i Item) Has(trait string) bool {
	return slices.Contains(i.Traits, trait)
}

// Actor is the party performing an interaction.
type Actor struct {
	ID         string   `json:"id"`
	Position   Position `json:"position"`
	ActiveHand Hand     `json:"active_hand"`
	Held       []Item   `json:"held,omitempty"`
}

// protected reports whether the actor holds insulating equipment.
func (a Actor) protected() bool {
	return slices.ContainsFunc(a.Held, func(i Item) bool { return i.Has(TraitInsulatedGloves) })
}

func (a Actor) burnedPart() BodyPart {
	if a.ActiveHand == HandLeft {
		return BodyPartLeftArm
	}
	return BodyPartRightArm
}

// InteractionRequest is an actor's request against the fixture.
type InteractionRequest struct {
	Kind   InteractionKind `json:"kind"`
	Actor  Actor           `json:"actor"`
	Item   *Item           `json:"item,omitempty"`
	Intent Intent          `json:"intent"`
}

// Outcome is the result category of an interaction.
type Outcome string

// Interaction outcomes.
const (
	OutcomeApplied Outcome = "applied"
	OutcomeRefused Outcome = "refused"
	OutcomeInjured Outcome = "injured"
)

// Refusal reasons.
const (
	ReasonNotConstructed  = "not_constructed"
	ReasonHostileIntent   = "hostile_intent"
	ReasonItemNotAccepted = "item_not_accepted"
	ReasonNoModule        = "no_module"
	ReasonModulePresent   = "module_present"
	ReasonUnsafeRemoval   = "unsafe_removal"
	ReasonUnknownKind     = "unknown_kind"
)

// InteractionResult is the feedback for an interaction. Refusals and
// injuries are reported here, never as errors.
type InteractionResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	State   State   `json:"state"`
	Injury  *Injury `json:"injury,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Interact validates and applies an interaction request.
//
// The request is refused without side effects when the fixture is not
// constructed, the intent is hostile, or a presented item carries neither
// the profile's consumable trait nor the replacer trait. Removal takes no
// item at all.
//
// Returns:
//   - InteractionResult: the outcome and the state after the request
//   - error: ErrUnauthorizedMutation or ErrTornDown only
func (c *Controller) Interact(req InteractionRequest) (InteractionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkMutable("interact"); err != nil && !errors.Is(err, ErrNotSpawned) {
		return InteractionResult{}, err
	}
	if !c.spawned {
		return c.refuse(ReasonNotConstructed, "the fixture is not built yet"), nil
	}
	if req.Intent == IntentHarm {
		return c.refuse(ReasonHostileIntent, ""), nil
	}
	if req.Item != nil && !c.accepts(*req.Item) {
		return c.refuse(ReasonItemNotAccepted, fmt.Sprintf("%s does not fit", req.Item.ID)), nil
	}

	switch req.Kind {
	case InteractionRemove:
		return c.remove(req), nil
	case InteractionReplace:
		return c.replace(req), nil
	case InteractionInsert:
		return c.insert(req), nil
	default:
		return c.refuse(ReasonUnknownKind, string(req.Kind)), nil
	}
}

func (c *Controller) accepts(item Item) bool {
	required := c.catalog.Profile(c.state).RequiredTrait
	return (required != "" && item.Has(required)) || item.Has(TraitLightReplacer)
}

// remove takes the module out by hand. A request carrying an item is
// refused, even a replacer; replacement goes through InteractionReplace.
func (c *Controller) remove(req InteractionRequest) InteractionResult {
	if req.Item != nil {
		return c.refuse(ReasonItemNotAccepted, "removal is done by hand")
	}
	if !c.state.HasModule() {
		return c.refuse(ReasonNoModule, "there is nothing to remove")
	}

	if c.state == StateOn && !req.Actor.protected() {
		inj := Injury{
			FixtureID: c.cfg.ID,
			ActorID:   req.Actor.ID,
			Amount:    c.rng.Float64() * c.cfg.MaxTouchDamage,
			BodyPart:  req.Actor.burnedPart(),
			Kind:      "heat",
		}
		c.collab.Injuries.ApplyInjury(inj)
		c.collab.Cues.PlayCue(CueEvent{FixtureID: c.cfg.ID, Cue: CueBurn, Position: c.cfg.Position})
		c.logger.Info("unsafe removal", "fixture", c.cfg.ID, "actor", req.Actor.ID, "amount", inj.Amount)
		return InteractionResult{
			Outcome: OutcomeInjured,
			Reason:  ReasonUnsafeRemoval,
			State:   c.state,
			Injury:  &inj,
			Message: "you burn your " + strings.ReplaceAll(string(inj.BodyPart), "_", " ") + " on the light tube",
		}
	}

	next := c.apply(ModuleRemoved(), effectContext{
		actorID:     req.Actor.ID,
		destination: DestinationActor,
		position:    &req.Actor.Position,
	})
	return InteractionResult{Outcome: OutcomeApplied, State: next}
}

func (c *Controller) replace(req InteractionRequest) InteractionResult {
	if req.Item == nil || !req.Item.Has(TraitLightReplacer) {
		return c.refuse(ReasonItemNotAccepted, "a replacer is needed")
	}
	if !c.state.HasModule() {
		return c.refuse(ReasonNoModule, "there is nothing to replace")
	}

	next := c.apply(ModuleRemoved(), effectContext{
		actorID:     req.Actor.ID,
		destination: DestinationFloor,
		position:    &req.Actor.Position,
	})
	return InteractionResult{Outcome: OutcomeApplied, State: next}
}

func (c *Controller) insert(req InteractionRequest) InteractionResult {
	required := c.catalog.Profile(c.state).RequiredTrait
	if req.Item == nil || !req.Item.Has(required) {
		return c.refuse(ReasonItemNotAccepted, "nothing to insert")
	}
	if c.state != StateModuleAbsent {
		return c.refuse(ReasonModulePresent, "there is already a tube in the mount")
	}

	c.collab.Spawner.ConsumeItem(ConsumeRequest{
		FixtureID: c.cfg.ID,
		ItemID:    req.Item.ID,
		ActorID:   req.Actor.ID,
	})
	next := c.apply(ModuleInserted(req.Item.Has(TraitBroken)), effectContext{})
	return InteractionResult{Outcome: OutcomeApplied, State: next}
}

func (c *Controller) refuse(reason, message string) InteractionResult {
	c.logger.Debug("interaction refused", "fixture", c.cfg.ID, "reason", reason)
	return InteractionResult{Outcome: OutcomeRefused, Reason: reason, State: c.state, Message: message}
}
