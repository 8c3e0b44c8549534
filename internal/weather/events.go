package weather

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	EventIconBytes EventKind = iota
	EventIconName
	EventCurrentWeather
	EventDayForecast
	EventSixDayForecast
	EventUVCoordinates
	EventUVIndex
	EventOzoneIndex
	EventError
	EventDone
)

// Done status codes.
const (
	DoneOK     = 0
	DoneFailed = 1
)

// Event is one item on the core-to-consumer stream. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	Location Location

	// EventIconBytes
	Icon []byte

	// EventIconName
	Name string

	// EventCurrentWeather
	Snapshot *WeatherSnapshot

	// EventDayForecast / EventSixDayForecast
	Periods []ForecastPeriod

	// EventUVCoordinates
	Coord Coordinates

	// EventUVIndex / EventOzoneIndex; nil means unavailable this cycle.
	Index *float64
	Risk  string

	// EventError
	Message string

	// EventDone
	Status int
}

func (k EventKind) String() string {
	switch k {
	case EventIconBytes:
		return "iconBytes"
	case EventIconName:
		return "iconName"
	case EventCurrentWeather:
		return "currentWeather"
	case EventDayForecast:
		return "dayForecast"
	case EventSixDayForecast:
		return "sixDayForecast"
	case EventUVCoordinates:
		return "uvCoordinates"
	case EventUVIndex:
		return "uvIndex"
	case EventOzoneIndex:
		return "ozoneIndex"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	}
	return "unknown"
}
