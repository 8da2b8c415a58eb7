package line

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// Messaging API limits.
const (
	maxTextRunes      = 5000
	maxQuickReplies   = 13
	maxLabelRunes     = 20
	maxAltTextRunes   = 400
	maxReplyMessages  = 5
	emptyValue        = "-"
	labelColor        = "#AAAAAA"
	valueColor        = "#666666"
	headerTextColor   = "#FFFFFF"
	defaultHeaderTint = "#455A64"
)

type message struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	AltText    string      `json:"altText,omitempty"`
	Contents   *component  `json:"contents,omitempty"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string `json:"type"`
	Action action `json:"action"`
}

type action struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// component is a flex container or element. Only the properties the
// shop cards use are modelled.
type component struct {
	Type            string       `json:"type"`
	Layout          string       `json:"layout,omitempty"`
	Header          *component   `json:"header,omitempty"`
	Hero            *component   `json:"hero,omitempty"`
	Body            *component   `json:"body,omitempty"`
	Footer          *component   `json:"footer,omitempty"`
	Contents        []*component `json:"contents,omitempty"`
	Text            string       `json:"text,omitempty"`
	URL             string       `json:"url,omitempty"`
	Size            string       `json:"size,omitempty"`
	Weight          string       `json:"weight,omitempty"`
	Color           string       `json:"color,omitempty"`
	BackgroundColor string       `json:"backgroundColor,omitempty"`
	AspectMode      string       `json:"aspectMode,omitempty"`
	AspectRatio     string       `json:"aspectRatio,omitempty"`
	Spacing         string       `json:"spacing,omitempty"`
	Margin          string       `json:"margin,omitempty"`
	Style           string       `json:"style,omitempty"`
	Flex            *int         `json:"flex,omitempty"`
	Wrap            bool         `json:"wrap,omitempty"`
	Action          *action      `json:"action,omitempty"`
}

// render converts outbound messages into Messaging API message objects.
// Text longer than the API allows is split across several messages; the
// quick replies ride on the last one.
func render(msgs []domain.OutboundMessage) ([]message, error) {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		switch v := m.(type) {
		case domain.PlainText:
			out = append(out, renderText(v)...)
		case domain.SummaryCard:
			out = append(out, renderSummary(v))
		case domain.LocationCard:
			out = append(out, renderLocation(v))
		default:
			return nil, fmt.Errorf("unsupported message kind %q", m.Kind())
		}
	}
	return out, nil
}

func renderText(t domain.PlainText) []message {
	chunks := splitText(t.Text, maxTextRunes)
	out := make([]message, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, message{Type: "text", Text: c})
	}
	if qr := renderQuickReplies(t.QuickReplies); qr != nil {
		out[len(out)-1].QuickReply = qr
	}
	return out
}

func renderQuickReplies(options []domain.QuickReply) *quickReply {
	if len(options) == 0 {
		return nil
	}
	if len(options) > maxQuickReplies {
		options = options[:maxQuickReplies]
	}
	items := make([]quickReplyItem, 0, len(options))
	for _, o := range options {
		items = append(items, quickReplyItem{
			Type:   "action",
			Action: action{Type: "message", Label: truncate(o.Label, maxLabelRunes), Text: o.Text},
		})
	}
	return &quickReply{Items: items}
}

func renderSummary(c domain.SummaryCard) message {
	tint := c.AccentColor
	if tint == "" {
		tint = defaultHeaderTint
	}
	bubble := &component{
		Type: "bubble",
		Header: &component{
			Type:            "box",
			Layout:          "vertical",
			BackgroundColor: tint,
			Contents: []*component{
				{Type: "text", Text: orEmpty(c.Title), Weight: "bold", Size: "lg", Color: headerTextColor, Wrap: true},
			},
		},
		Body: &component{Type: "box", Layout: "vertical", Spacing: "sm"},
	}
	if c.ImageURL != "" {
		bubble.Hero = &component{Type: "image", URL: c.ImageURL, Size: "full", AspectMode: "cover", AspectRatio: "20:13"}
	}
	for _, r := range c.Rows {
		bubble.Body.Contents = append(bubble.Body.Contents, row(r.Label, r.Value, r.Wrap))
	}
	if c.Footer != "" {
		bubble.Footer = &component{
			Type:   "box",
			Layout: "vertical",
			Contents: []*component{
				{Type: "text", Text: c.Footer, Size: "xs", Color: valueColor, Wrap: true},
			},
		}
	}
	return message{Type: "flex", AltText: truncate(orEmpty(c.Title), maxAltTextRunes), Contents: bubble}
}

func renderLocation(c domain.LocationCard) message {
	info := c.BusinessInfo
	body := &component{
		Type:   "box",
		Layout: "vertical",
		Contents: []*component{
			{Type: "text", Text: orEmpty(info.Name), Weight: "bold", Size: "xl", Wrap: true},
		},
	}
	details := &component{Type: "box", Layout: "vertical", Spacing: "sm", Margin: "lg"}
	for _, r := range [][2]string{
		{"Address", info.Address},
		{"Phone", info.Phone},
		{"Hours", info.Hours},
	} {
		if r[1] != "" {
			details.Contents = append(details.Contents, row(r[0], r[1], true))
		}
	}
	if len(details.Contents) > 0 {
		body.Contents = append(body.Contents, details)
	}

	bubble := &component{Type: "bubble", Body: body}
	var buttons []*component
	if uri := mapURI(info); uri != "" {
		buttons = append(buttons, button("Open map", uri, "primary"))
	}
	if info.Phone != "" {
		buttons = append(buttons, button("Call", "tel:"+strings.ReplaceAll(info.Phone, " ", ""), "secondary"))
	}
	if len(buttons) > 0 {
		bubble.Footer = &component{Type: "box", Layout: "vertical", Spacing: "sm", Contents: buttons}
	}
	return message{Type: "flex", AltText: truncate(orEmpty(info.Name), maxAltTextRunes), Contents: bubble}
}

func row(label, value string, wrap bool) *component {
	return &component{
		Type:    "box",
		Layout:  "baseline",
		Spacing: "sm",
		Contents: []*component{
			{Type: "text", Text: orEmpty(label), Color: labelColor, Size: "sm", Flex: flex(2)},
			{Type: "text", Text: orEmpty(value), Color: valueColor, Size: "sm", Flex: flex(5), Wrap: wrap},
		},
	}
}

func button(label, uri, style string) *component {
	return &component{
		Type:   "button",
		Style:  style,
		Action: &action{Type: "uri", Label: truncate(label, maxLabelRunes), URI: uri},
	}
}

// mapURI prefers the configured map link and falls back to a coordinate
// search.
func mapURI(info domain.BusinessInfo) string {
	if info.MapURL != "" {
		return info.MapURL
	}
	if info.Latitude == 0 && info.Longitude == 0 {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", info.Latitude, info.Longitude)
}

func flex(n int) *int { return &n }

// orEmpty substitutes a placeholder, since flex text may not be empty.
func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyValue
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// splitText breaks text into chunks of at most limit runes, preferring to
// cut after a newline.
func splitText(text string, limit int) []string {
	if text == "" {
		return []string{emptyValue}
	}
	var chunks []string
	r := []rune(text)
	for len(r) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if r[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		chunks = append(chunks, string(r))
	}
	return chunks
}
