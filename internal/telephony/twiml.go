package telephony

import (
	"bytes"
	"encoding/xml"
)

// TwiML is a minimal messaging response builder. Webhooks acknowledge with an
// empty <Response/>; auto-replies are not used.

type twimlResponse struct {
	XMLName xml.Name       `xml:"Response"`
	Verbs   []twimlMessage `xml:"Message,omitempty"`
}

type twimlMessage struct {
	Body string `xml:",chardata"`
}

// RenderMessagingResponse renders a Response with one <Message> per reply.
func RenderMessagingResponse(replies ...string) (string, error) {
	var r twimlResponse
	for _, body := range replies {
		if body == "" {
			continue
		}
		r.Verbs = append(r.Verbs, twimlMessage{Body: body})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmptyResponse is the acknowledgement written by every messaging webhook.
var EmptyResponse = xml.Header + "<Response></Response>"
