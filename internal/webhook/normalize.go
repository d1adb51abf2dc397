// Package webhook parses raw messaging-gateway event payloads into a closed
// union of typed events.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	eventMessagesUpsert   = "messages.upsert"
	eventConnectionUpdate = "connection.update"
)

type rawEnvelope struct {
	Event    string          `json:"event"`
	Instance json.RawMessage `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

type rawInstance struct {
	InstanceName string `json:"instanceName"`
}

type rawData struct {
	Key struct {
		FromMe    bool   `json:"fromMe"`
		RemoteJid string `json:"remoteJid"`
	} `json:"key"`
	Message struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	State string `json:"state"`
}

// Decode parses a raw gateway payload into a typed Event. A malformed body is
// the only error condition; everything the pipeline chooses not to act on
// decodes to Ignored so the webhook endpoint can acknowledge it.
func Decode(body []byte) (Event, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}

	instanceID := decodeInstance(env.Instance)

	// The gateway emits event names in both dotted-lowercase and
	// underscored-uppercase forms (messages.upsert vs CONNECTION_UPDATE).
	event := strings.ReplaceAll(strings.ToLower(env.Event), "_", ".")

	switch event {
	case eventMessagesUpsert:
		return decodeMessage(instanceID, env.Data)
	case eventConnectionUpdate:
		data, _ := firstDataObject(env.Data)
		return ConnectionUpdate{InstanceID: instanceID, State: data.State}, nil
	default:
		return Ignored{Reason: fmt.Sprintf("unhandled event type %q", env.Event)}, nil
	}
}

// decodeInstance accepts either a bare string or an {instanceName} object.
func decodeInstance(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj rawInstance
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.InstanceName
	}
	return ""
}

// firstDataObject accepts data as a single object or an array of objects.
func firstDataObject(raw json.RawMessage) (rawData, bool) {
	var single rawData
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, true
	}
	var list []rawData
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], true
	}
	return rawData{}, false
}

func decodeMessage(instanceID string, raw json.RawMessage) (Event, error) {
	data, ok := firstDataObject(raw)
	if !ok {
		return Ignored{Reason: "messages.upsert without data"}, nil
	}

	if data.Key.FromMe {
		return Ignored{Reason: "self-sent message"}, nil
	}

	text := data.Message.Conversation
	if text == "" {
		text = data.Message.ExtendedTextMessage.Text
	}
	if text == "" {
		return Ignored{Reason: "unsupported media type"}, nil
	}

	phone := data.Key.RemoteJid
	if at := strings.IndexByte(phone, '@'); at >= 0 {
		phone = phone[:at]
	}
	if phone == "" {
		return Ignored{Reason: "message without sender"}, nil
	}

	return TextMessage{
		InstanceID:     instanceID,
		SenderPhoneRaw: phone,
		Text:           text,
	}, nil
}
