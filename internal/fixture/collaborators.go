package fixture

// Position locates a fixture or actor on a grid.
type Position struct {
	Grid string  `json:"grid,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Destination says where a spawned item ends up.
type Destination string

// Spawn destinations.
const (
	DestinationFloor Destination = "floor"
	DestinationActor Destination = "actor"
)

// DebrisItem is spawned when an intact module shatters.
const DebrisItem = "glass_shard"

// SpawnRequest asks the inventory collaborator to create an item.
type SpawnRequest struct {
	FixtureID   string      `json:"fixture_id"`
	ItemID      string      `json:"item_id"`
	Position    Position    `json:"position"`
	Destination Destination `json:"destination"`
	ActorID     string      `json:"actor_id,omitempty"`
	Reason      string      `json:"reason"`
}

// ConsumeRequest asks the inventory collaborator to despawn an item.
type ConsumeRequest struct {
	FixtureID string `json:"fixture_id"`
	ItemID    string `json:"item_id"`
	ActorID   string `json:"actor_id,omitempty"`
}

// HazardEvent describes a spark that should ignite the surroundings.
type HazardEvent struct {
	FixtureID string   `json:"fixture_id"`
	Position  Position `json:"position"`
	Intensity float64  `json:"intensity"`
}

// BodyPart names the body part that receives an injury.
type BodyPart string

// Body parts used for touch burns.
const (
	BodyPartLeftArm  BodyPart = "left_arm"
	BodyPartRightArm BodyPart = "right_arm"
)

// Injury is a side effect applied to an actor's health.
type Injury struct {
	FixtureID string   `json:"fixture_id"`
	ActorID   string   `json:"actor_id"`
	Amount    float64  `json:"amount"`
	BodyPart  BodyPart `json:"body_part"`
	Kind      string   `json:"kind"`
}

// Cue names a presentation cue (sound or visual flag).
type Cue string

// Cues played by the controller.
const (
	CueSparks  Cue = "sparks"
	CueShatter Cue = "glass_shatter"
	CueBurn    Cue = "burn"
)

// CueEvent asks the presentation collaborator to play a cue.
type CueEvent struct {
	FixtureID string   `json:"fixture_id"`
	Cue       Cue      `json:"cue"`
	Position  Position `json:"position"`
}

// ItemSpawner creates and consumes items.
type ItemSpawner interface {
	SpawnItem(req SpawnRequest)
	ConsumeItem(req ConsumeRequest)
}

// HazardSink receives hazard triggers.
type HazardSink interface {
	HazardTriggered(ev HazardEvent)
}

// InjurySink applies injuries to actors.
type InjurySink interface {
	ApplyInjury(inj Injury)
}

// CueSink plays presentation cues.
type CueSink interface {
	PlayCue(ev CueEvent)
}

// Observer receives the replication stream in commit order.
// Observe is called with the controller lock held and must not block
// or call back into the controller.
type Observer interface {
	Observe(rec Record)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(rec Record)

// Observe calls f(rec).
func (f ObserverFunc) Observe(rec Record) { f(rec) }

// Collaborators bundles the outbound interfaces. Nil fields are replaced
// with no-op implementations.
type Collaborators struct {
	Spawner  ItemSpawner
	Hazards  HazardSink
	Injuries InjurySink
	Cues     CueSink
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Spawner == nil {
		c.Spawner = noopCollaborator{}
	}
	if c.Hazards == nil {
		c.Hazards = noopCollaborator{}
	}
	if c.Injuries == nil {
		c.Injuries = noopCollaborator{}
	}
	if c.Cues == nil {
		c.Cues = noopCollaborator{}
	}
	return c
}

type noopCollaborator struct{}

func (noopCollaborator) SpawnItem(SpawnRequest)      {}
func (noopCollaborator) ConsumeItem(ConsumeRequest)  {}
func (noopCollaborator) HazardTriggered(HazardEvent) {}
func (noopCollaborator) ApplyInjury(Injury)          {}
func (noopCollaborator) PlayCue(CueEvent)            {}

// Logger defines the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
