package domain

// MessageKind discriminates OutboundMessage variants on the wire.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindSummary  MessageKind = "summary"
	KindLocation MessageKind = "location"
)

// OutboundMessage is one reply variant. The set of variants is closed.
type OutboundMessage interface {
	Kind() MessageKind
	outbound()
}

// QuickReply is a tappable option that sends Text when chosen.
type QuickReply struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// PlainText is a text reply with optional quick-reply options.
type PlainText struct {
	Text         string       `json:"text"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
}

// CardRow is one labelled value on a summary card. Key is the field name
// the value was collected under.
type CardRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Wrap  bool   `json:"wrap,omitempty"`
}

// SummaryCard summarizes collected fields at the end of a flow.
type SummaryCard struct {
	Title       string    `json:"title"`
	AccentColor string    `json:"accentColor"`
	Rows        []CardRow `json:"rows"`
	Footer      string    `json:"footer,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// Row returns the row collected under key.
func (c SummaryCard) Row(key string) (CardRow, bool) {
	for _, r := range c.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return CardRow{}, false
}

// BusinessInfo is the fixed shop record shown on the location card.
type BusinessInfo struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Hours     string  `json:"hours,omitempty"`
	MapURL    string  `json:"mapUrl,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// LocationCard shows the shop's contact details.
type LocationCard struct {
	BusinessInfo
}

func (PlainText) Kind() MessageKind    { return KindText }
func (SummaryCard) Kind() MessageKind  { return KindSummary }
func (LocationCard) Kind() MessageKind { return KindLocation }

func (PlainText) outbound()    {}
func (SummaryCard) outbound()  {}
func (LocationCard) outbound() {}

// Reply addresses an ordered list of messages to the user of one event.
type Reply struct {
	ChannelID string            `json:"channelId"`
	UserID    string            `json:"userId"`
	Handle    string            `json:"handle,omitempty"`
	Messages  []OutboundMessage `json:"messages"`
}
