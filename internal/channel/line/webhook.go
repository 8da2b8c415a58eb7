package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the request body.
const SignatureHeader = "X-Line-Signature"

// ErrSignature is matched by every SignatureError.
var ErrSignature = errors.New("invalid webhook signature")

// SignatureError rejects a webhook body that was not signed with the
// channel secret.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return ErrSignature.Error() + ": " + e.Reason
}

func (e *SignatureError) Unwrap() error { return ErrSignature }

// Sign computes the signature LINE sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against body in constant time.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return &SignatureError{Reason: "no channel secret configured"}
	}
	if signature == "" {
		return &SignatureError{Reason: "missing " + SignatureHeader}
	}
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return &SignatureError{Reason: "signature is not base64"}
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return &SignatureError{Reason: "digest mismatch"}
	}
	return nil
}

type webhookBody struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type            string `json:"type"`
	Mode            string `json:"mode"`
	Timestamp       int64  `json:"timestamp"`
	WebhookEventID  string `json:"webhookEventId"`
	ReplyToken      string `json:"replyToken"`
	DeliveryContext struct {
		IsRedelivery bool `json:"isRedelivery"`
	} `json:"deliveryContext"`
	Source struct {
		Type    string `json:"type"`
		UserID  string `json:"userId"`
		GroupID string `json:"groupId"`
		RoomID  string `json:"roomId"`
	} `json:"source"`
	Message struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// ParseEvents decodes a webhook body into inbound events. Event kinds the
// engine has no use for (stickers, unfollows, postbacks, standby mode) are
// skipped. A follow is delivered as an empty text turn so the user gets
// the greeting.
func ParseEvents(channelID string, body []byte) ([]domain.InboundEvent, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("decoding webhook body: %w", err)
	}

	out := make([]domain.InboundEvent, 0, len(wb.Events))
	for _, we := range wb.Events {
		if we.Mode == "standby" || we.Source.UserID == "" {
			continue
		}
		ev := domain.InboundEvent{
			ID:          we.WebhookEventID,
			ChannelID:   channelID,
			UserID:      we.Source.UserID,
			ReplyHandle: we.ReplyToken,
			Redelivery:  we.DeliveryContext.IsRedelivery,
			Timestamp:   time.UnixMilli(we.Timestamp),
		}
		switch {
		case we.Type == "follow":
			ev.Kind = domain.EventText
		case we.Type == "message" && we.Message.Type == "text":
			ev.Kind = domain.EventText
			ev.Text = strings.TrimSpace(we.Message.Text)
		case we.Type == "message" && we.Message.Type == "image":
			ev.Kind = domain.EventImage
		default:
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
