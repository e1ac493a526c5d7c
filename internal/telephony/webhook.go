package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"sort"
	"strings"
)

// InboundSMS captures the subset of messaging webhook fields we use.
// Providers post application/x-www-form-urlencoded; lower-case aliases are accepted
// for hand-rolled integrations.
type InboundSMS struct {
	MessageSID string `json:"message_sid"`
	AccountSID string `json:"account_sid,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
	Body       string `json:"body"`
}

// Complete reports whether the event carries enough to be stored.
func (m InboundSMS) Complete() bool {
	return m.From != "" && m.To != "" && m.Body != ""
}

// StatusCallback is a delivery receipt for an outbound message.
type StatusCallback struct {
	MessageSID string `json:"message_sid"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code,omitempty"`
}

var ErrMissingMessageSID = errors.New("telephony: MessageSid required")

func ParseInboundSMS(r *http.Request) (InboundSMS, error) {
	if err := r.ParseForm(); err != nil {
		return InboundSMS{}, err
	}
	return InboundSMS{
		MessageSID: formValue(r, "MessageSid", "messageSid", "SmsSid"),
		AccountSID: formValue(r, "AccountSid", "accountSid"),
		From:       formValue(r, "From", "from"),
		To:         formValue(r, "To", "to"),
		Body:       formValue(r, "Body", "body"),
	}, nil
}

func ParseStatusCallback(r *http.Request) (StatusCallback, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallback{}, err
	}
	s := StatusCallback{
		MessageSID: formValue(r, "MessageSid", "messageSid", "SmsSid"),
		Status:     strings.ToLower(formValue(r, "MessageStatus", "messageStatus", "SmsStatus")),
		ErrorCode:  formValue(r, "ErrorCode", "errorCode"),
	}
	if s.MessageSID == "" {
		return s, ErrMissingMessageSID
	}
	return s, nil
}

// formValue returns the first non-empty value among keys. Body is not trimmed
// beyond surrounding whitespace; numbers are normalized by the caller.
func formValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.PostFormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

// ComputeSignature reproduces X-Twilio-Signature: base64(HMAC-SHA1(authToken,
// fullURL + sorted key/value pairs of the POST form)).
func ComputeSignature(authToken, fullURL string, form map[string][]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		vals := append([]string(nil), form[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func ValidSignature(authToken, fullURL string, form map[string][]string, signature string) bool {
	if authToken == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(authToken, fullURL, form)
	return hmac.Equal([]byte(expected), []byte(signature))
}
