package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func formRequest(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseInboundSMS(t *testing.T) {
	r := formRequest("/webhooks/sms/inbound", url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551234567"},
		"To":         {" +15557654321 "},
		"Body":       {"hello"},
	})

	in, err := ParseInboundSMS(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.MessageSID != "SM123" || in.From != "+15551234567" || in.To != "+15557654321" || in.Body != "hello" {
		t.Fatalf("unexpected inbound %+v", in)
	}
	if !in.Complete() {
		t.Fatalf("expected complete event")
	}
}

func TestParseInboundSMS_LowercaseAliases(t *testing.T) {
	r := formRequest("/webhooks/sms/inbound", url.Values{
		"messageSid": {"SM9"},
		"from":       {"5551234567"},
		"to":         {"5557654321"},
	})

	in, err := ParseInboundSMS(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if in.MessageSID != "SM9" || in.From != "5551234567" {
		t.Fatalf("unexpected inbound %+v", in)
	}
	if in.Complete() {
		t.Fatalf("event without body should be incomplete")
	}
}

func TestParseStatusCallback(t *testing.T) {
	st, err := ParseStatusCallback(formRequest("/webhooks/sms/status", url.Values{
		"MessageSid":    {"SM1"},
		"MessageStatus": {"Delivered"},
	}))
	if err != nil || st.MessageSID != "SM1" || st.Status != "delivered" {
		t.Fatalf("unexpected %+v %v", st, err)
	}

	if _, err := ParseStatusCallback(formRequest("/webhooks/sms/status", url.Values{"MessageStatus": {"sent"}})); err != ErrMissingMessageSID {
		t.Fatalf("expected ErrMissingMessageSID, got %v", err)
	}
}

func TestSignature_RoundTrip(t *testing.T) {
	form := url.Values{"To": {"+1"}, "From": {"+2"}, "Body": {"x"}}
	sig := ComputeSignature("tok", "https://api.example.com/webhooks/sms/inbound", form)

	if !ValidSignature("tok", "https://api.example.com/webhooks/sms/inbound", form, sig) {
		t.Fatalf("expected signature to validate")
	}
	if ValidSignature("other", "https://api.example.com/webhooks/sms/inbound", form, sig) {
		t.Fatalf("expected wrong token to fail")
	}
	form.Set("Body", "tampered")
	if ValidSignature("tok", "https://api.example.com/webhooks/sms/inbound", form, sig) {
		t.Fatalf("expected tampered form to fail")
	}
}
