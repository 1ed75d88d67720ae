package invalidation

// Kind names a routing rule an Event should trigger.
type Kind string

const (
	KindAthlete      Kind = "athlete"
	KindUser         Kind = "user"
	KindAthleteLists Kind = "athlete_lists"
	KindStaticData   Kind = "static_data"
	KindAll          Kind = "all"
)

// Event is the wire form of an invalidation broadcast between app instances.
type Event struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// originAttribute carries the publishing instance's id so a listener can
// skip events it produced itself.
const originAttribute = "origin_instance"
