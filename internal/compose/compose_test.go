package compose

import (
	"errors"
	"strings"
	"testing"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repairCard = CardSpec{
	Title: "Repair request",
	Color: "#E53935",
	Rows: []RowSpec{
		{Key: "type", Label: "Device"},
		{Key: "equipment", Label: "Equipment", Optional: true},
		{Key: "detail", Label: "Problem", FreeText: true},
	},
}

func TestPromptAppendsCancel(t *testing.T) {
	msg := Prompt("Which device?", Option("Computer", "computer"), Option("Printer", "printer"))
	require.Len(t, msg.QuickReplies, 3)
	assert.Equal(t, Cancel, msg.QuickReplies[2])
}

func TestPromptDoesNotDuplicateCancel(t *testing.T) {
	msg := Prompt("Send a photo", Skip, Cancel)
	assert.Equal(t, []domain.QuickReply{Skip, Cancel}, msg.QuickReplies)
}

func TestPromptWithoutOptions(t *testing.T) {
	msg := Prompt("Describe the problem")
	assert.Equal(t, []domain.QuickReply{Cancel}, msg.QuickReplies)
}

func TestMainMenuNeverOffersCancel(t *testing.T) {
	msg := MainMenu("Hello", Option("Repair", "repair"), Cancel)
	assert.Equal(t, []domain.QuickReply{Option("Repair", "repair")}, msg.QuickReplies)
}

func TestConfirmationNeverOffersCancel(t *testing.T) {
	msg := Confirmation("Thanks", Cancel)
	assert.Empty(t, msg.QuickReplies)
}

func TestSummaryRows(t *testing.T) {
	card, err := Summary(repairCard, map[string]string{
		"type":   "computer",
		"detail": "screen is black",
	}, false)
	require.NoError(t, err)

	keys := make([]string, 0, len(card.Rows))
	values := make([]string, 0, len(card.Rows))
	for _, r := range card.Rows {
		keys = append(keys, r.Key)
		values = append(values, r.Value)
	}
	assert.Equal(t, []string{"type", "detail", KeyHasImage, KeyStatus}, keys)
	assert.Equal(t, []string{"computer", "screen is black", "false", StatusPending}, values)
	assert.Equal(t, "Repair request", card.Title)
	assert.Equal(t, "#E53935", card.AccentColor)
}

func TestSummaryIncludesOptionalWhenPresent(t *testing.T) {
	card, err := Summary(repairCard, map[string]string{
		"type":      "other",
		"equipment": "projector",
		"detail":    "no picture",
	}, true)
	require.NoError(t, err)

	row, ok := card.Row("equipment")
	require.True(t, ok)
	assert.Equal(t, "projector", row.Value)

	img, _ := card.Row(KeyHasImage)
	assert.Equal(t, "true", img.Value)
}

func TestSummaryMissingRequiredField(t *testing.T) {
	_, err := Summary(repairCard, map[string]string{"type": "computer"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), "detail")
}

func TestSummaryPreservesMultilineVerbatim(t *testing.T) {
	detail := "line one\n  line two with <html> & \"quotes\""
	card, err := Summary(repairCard, map[string]string{"type": "printer", "detail": detail}, false)
	require.NoError(t, err)

	row, _ := card.Row("detail")
	assert.Equal(t, detail, row.Value)
	assert.True(t, row.Wrap)
}

func TestRowWrap(t *testing.T) {
	assert.False(t, Row("type", "Device", "computer").Wrap)
	assert.True(t, Row("detail", "Problem", "a\nb").Wrap)
	assert.True(t, Row("detail", "Problem", strings.Repeat("x", wrapThreshold+1)).Wrap)
}

func TestFreeTextRowAlwaysWraps(t *testing.T) {
	card, err := Summary(repairCard, map[string]string{"type": "computer", "detail": "short"}, false)
	require.NoError(t, err)
	row, _ := card.Row("detail")
	assert.True(t, row.Wrap)
}

func TestLocation(t *testing.T) {
	info := domain.BusinessInfo{Name: "Shop", Phone: "02-000-0000"}
	card := Location(info)
	assert.Equal(t, domain.KindLocation, card.Kind())
	assert.Equal(t, info, card.BusinessInfo)
}

func TestClosedNotice(t *testing.T) {
	card := ClosedNotice("Shop", "Mon-Sat 08:30-17:30")
	assert.Contains(t, card.Title, "Shop")
	assert.Equal(t, ClosedColor, card.AccentColor)
	row, ok := card.Row("hours")
	require.True(t, ok)
	assert.Equal(t, "Mon-Sat 08:30-17:30", row.Value)
}
