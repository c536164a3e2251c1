package engine

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventButton
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is one inbound update, already stripped of transport details.
type Event struct {
	Actor int64
	Kind  EventKind

	// Command name without the slash and its argument.
	Name string
	Arg  string

	Text string

	// Data is the opaque token of the pressed button.
	Data string
}

func Command(actor int64, name, arg string) Event {
	return Event{Actor: actor, Kind: EventCommand, Name: name, Arg: arg}
}

func Text(actor int64, text string) Event {
	return Event{Actor: actor, Kind: EventText, Text: text}
}

func Button(actor int64, data string) Event {
	return Event{Actor: actor, Kind: EventButton, Data: data}
}

type InlineButton struct {
	Text string
	Data string
}

type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Reply is one outbound message. Buttons are attached to the message itself,
// Menu replaces the persistent keyboard under the input field and RemoveMenu
// takes it away.
type Reply struct {
	Text       string
	HTML       bool
	Buttons    [][]InlineButton
	Menu       [][]string
	RemoveMenu bool
	Document   *Document
}
