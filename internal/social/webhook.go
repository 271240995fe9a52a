package social

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"glowdesk/internal/models"

	"github.com/tidwall/gjson"
)

const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks an X-Hub-Signature-256 header of the form sha256=<hex> against the raw body.
func VerifySignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok || appSecret == "" {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign produces the header value for body. Used by tests and local tooling.
func Sign(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// PlatformForObject maps the webhook "object" field to a platform.
func PlatformForObject(object string) string {
	if object == "instagram" {
		return models.PlatformInstagram
	}
	return models.PlatformFacebook
}

// ParseMessages extracts text messages from entry[].messaging[]. Echoes of
// messages the page sent itself are skipped.
func ParseMessages(body []byte) (string, []models.InboundMessage) {
	root := gjson.ParseBytes(body)
	platform := PlatformForObject(root.Get("object").String())

	var out []models.InboundMessage
	root.Get("entry").ForEach(func(_, entry gjson.Result) bool {
		pageID := entry.Get("id").String()
		entry.Get("messaging").ForEach(func(_, m gjson.Result) bool {
			msg := m.Get("message")
			if !msg.Exists() || msg.Get("is_echo").Bool() {
				return true
			}
			mid := msg.Get("mid").String()
			if mid == "" {
				return true
			}
			out = append(out, models.InboundMessage{
				PageID:      pageID,
				SenderID:    m.Get("sender.id").String(),
				RecipientID: m.Get("recipient.id").String(),
				MessageID:   mid,
				Text:        msg.Get("text").String(),
				Timestamp:   time.UnixMilli(m.Get("timestamp").Int()).UTC(),
			})
			return true
		})
		return true
	})
	return platform, out
}
