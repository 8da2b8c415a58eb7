// Package compose builds outbound message variants from collected data.
// Every function is pure: the same input always yields the same message.
package compose

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// ErrMissingField is returned when a card row references a field that was
// never collected.
var ErrMissingField = errors.New("missing field")

// Synthetic row keys appended to every intake summary.
const (
	KeyHasImage = "hasImage"
	KeyStatus   = "status"

	StatusPending = "pending"
)

// wrapThreshold is the rune length above which single-line values are
// rendered as wrapping text.
const wrapThreshold = 24

// Cancel is the quick-reply option that aborts the current flow.
var Cancel = domain.QuickReply{Label: "Cancel", Text: "cancel"}

// Skip is the quick-reply option that completes an image step without a photo.
var Skip = domain.QuickReply{Label: "Skip", Text: "skip"}

// Option builds a quick-reply option.
func Option(label, text string) domain.QuickReply {
	return domain.QuickReply{Label: label, Text: text}
}

// Text returns a plain text message without quick replies.
func Text(text string) domain.PlainText {
	return domain.PlainText{Text: text}
}

// Prompt returns a mid-flow question. The cancel option is always the last
// quick reply.
func Prompt(text string, options ...domain.QuickReply) domain.PlainText {
	qr := make([]domain.QuickReply, 0, len(options)+1)
	for _, o := range options {
		if o.Text == Cancel.Text {
			continue
		}
		qr = append(qr, o)
	}
	qr = append(qr, Cancel)
	return domain.PlainText{Text: text, QuickReplies: qr}
}

// MainMenu returns the idle menu. It never offers cancel.
func MainMenu(text string, options ...domain.QuickReply) domain.PlainText {
	return domain.PlainText{Text: text, QuickReplies: withoutCancel(options)}
}

// Confirmation returns a terminal acknowledgement. It never offers cancel.
func Confirmation(text string, options ...domain.QuickReply) domain.PlainText {
	return domain.PlainText{Text: text, QuickReplies: withoutCancel(options)}
}

func withoutCancel(options []domain.QuickReply) []domain.QuickReply {
	if len(options) == 0 {
		return nil
	}
	out := make([]domain.QuickReply, 0, len(options))
	for _, o := range options {
		if o.Text != Cancel.Text {
			out = append(out, o)
		}
	}
	return out
}

// RowSpec describes one summary row sourced from a collected field.
type RowSpec struct {
	Key      string
	Label    string
	Optional bool // omitted from the card when the field was never collected
	FreeText bool // always rendered as wrapping text
}

// CardSpec is the static layout of a flow's summary card.
type CardSpec struct {
	Title    string
	Color    string
	Footer   string
	ImageURL string
	Rows     []RowSpec
}

// Card builds a summary card from arbitrary rows.
func Card(title, color, footer, imageURL string, rows ...domain.CardRow) domain.SummaryCard {
	return domain.SummaryCard{
		Title:       title,
		AccentColor: color,
		Rows:        rows,
		Footer:      footer,
		ImageURL:    imageURL,
	}
}

// Row builds a card row, flagging multi-line or long values as wrapping.
func Row(key, label, value string) domain.CardRow {
	return domain.CardRow{Key: key, Label: label, Value: value, Wrap: needsWrap(value)}
}

func needsWrap(v string) bool {
	return strings.Contains(v, "\n") || utf8.RuneCountInString(v) > wrapThreshold
}

// Summary builds the intake summary card for spec from fields, followed by
// the hasImage and status rows. A required field absent from fields is an
// ErrMissingField.
func Summary(spec CardSpec, fields map[string]string, hasImage bool) (domain.SummaryCard, error) {
	rows := make([]domain.CardRow, 0, len(spec.Rows)+2)
	for _, rs := range spec.Rows {
		v, ok := fields[rs.Key]
		if !ok {
			if rs.Optional {
				continue
			}
			return domain.SummaryCard{}, fmt.Errorf("%w: %q for card %q", ErrMissingField, rs.Key, spec.Title)
		}
		row := Row(rs.Key, rs.Label, v)
		row.Wrap = row.Wrap || rs.FreeText
		rows = append(rows, row)
	}
	rows = append(rows,
		Row(KeyHasImage, "Photo attached", fmt.Sprintf("%t", hasImage)),
		Row(KeyStatus, "Status", StatusPending),
	)
	return Card(spec.Title, spec.Color, spec.Footer, spec.ImageURL, rows...), nil
}

// Location builds the shop location card.
func Location(info domain.BusinessInfo) domain.LocationCard {
	return domain.LocationCard{BusinessInfo: info}
}

// ClosedColor is the accent of the closed-day notice.
const ClosedColor = "#9E9E9E"

// ClosedNotice builds the card shown when the shop is closed.
func ClosedNotice(shopName, hours string) domain.SummaryCard {
	title := "We are closed right now"
	if shopName != "" {
		title = shopName + " is closed right now"
	}
	return Card(title, ClosedColor,
		"Send \"contact\" for our address and phone, or \"help\" for more options.",
		"",
		Row("hours", "Opening hours", hours),
	)
}
