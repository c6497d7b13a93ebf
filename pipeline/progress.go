package pipeline

// EventType distinguishes the three progress event kinds Process emits.
type EventType uint8

const (
	// EventStageStart announces a new stage; Event.Stage carries its title.
	EventStageStart EventType = iota + 1
	// EventProgress reports partial progress within the current stage.
	EventProgress
	// EventStageDone marks the current stage as finished. It is emitted
	// exactly once per stage, regardless of throttling.
	EventStageDone
)

func (t EventType) String() string {
	switch t {
	case EventStageStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventStageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one progress notification from a Process run.
type Event struct {
	Type EventType

	// Stage is the stage title, set on EventStageStart.
	Stage string

	// Current and Total are set on EventProgress.
	Current int
	Total   int
}
