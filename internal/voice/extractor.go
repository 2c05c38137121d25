// Package voice ingests the voice platform's webhook events: call lifecycle
// reports and in-call tool invocations.
package voice

import (
	"encoding/json"
	"fmt"

	"github.com/emmanuel582/backendtablenow/internal/tenants"
)

// EventKind discriminates the normalized event union.
type EventKind int

const (
	// EventIgnored is any unrecognized-but-valid-looking payload. It is
	// acknowledged with 200 and dropped; erroring would trigger retry storms.
	EventIgnored EventKind = iota
	EventCallStarted
	EventCallEnded
	EventToolCalls
	EventFunctionCall
)

// ToolInvocation is one requested tool call. ArgsErr is set when the
// arguments were present but malformed; the invocation still flows through so
// the batch can report a per-call error without dropping siblings.
type ToolInvocation struct {
	ID           string
	FunctionName string
	Arguments    map[string]any
	ArgsErr      error
}

// NormalizedEvent is the canonical in-memory form of a webhook payload.
// Transient; never persisted.
type NormalizedEvent struct {
	Kind            EventKind
	RawType         string
	Keys            tenants.Keys
	CallID          string
	CallerNumber    string
	DurationSeconds int
	Transcript      string
	RecordingURL    string
	ToolCalls       []ToolInvocation
	FunctionCall    *ToolInvocation
}

// Normalize turns a raw webhook body into a NormalizedEvent. It is total:
// every input maps to some event, with unparseable or unrecognized payloads
// becoming EventIgnored. The actual event may sit at the top level or be
// wrapped under a "message" field depending on the channel version.
func Normalize(raw []byte) NormalizedEvent {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return NormalizedEvent{Kind: EventIgnored}
	}

	event := envelope
	if nested, ok := envelope["message"].(map[string]any); ok {
		event = nested
	}

	eventType, _ := event["type"].(string)
	normalized := NormalizedEvent{
		Kind:         EventIgnored,
		RawType:      eventType,
		Keys:         extractKeys(event),
		CallID:       extractCallID(event),
		CallerNumber: extractCallerNumber(event),
	}

	switch eventType {
	case "call.started":
		normalized.Kind = EventCallStarted
	case "call.ended", "end-of-call-report":
		normalized.Kind = EventCallEnded
		normalized.DurationSeconds = intField(event, "durationSeconds")
		normalized.Transcript, _ = event["transcript"].(string)
		normalized.RecordingURL, _ = event["recordingUrl"].(string)
	case "tool-calls":
		normalized.Kind = EventToolCalls
		normalized.ToolCalls = extractToolCalls(event)
	case "function-call":
		normalized.Kind = EventFunctionCall
		normalized.FunctionCall = extractFunctionCall(event)
	}
	return normalized
}

// extractKeys gathers every tenant identifier the payload happens to carry.
// Different event types place them differently, so all known locations are
// probed.
func extractKeys(event map[string]any) tenants.Keys {
	var keys tenants.Keys

	keys.AssistantID, _ = event["assistantId"].(string)
	if keys.AssistantID == "" {
		if assistant, ok := event["assistant"].(map[string]any); ok {
			keys.AssistantID, _ = assistant["id"].(string)
		}
	}

	keys.PhoneNumberID, _ = event["phoneNumberId"].(string)
	if phone, ok := event["phoneNumber"].(map[string]any); ok {
		if keys.PhoneNumberID == "" {
			keys.PhoneNumberID, _ = phone["id"].(string)
		}
		keys.PhoneNumber, _ = phone["number"].(string)
	}

	if call, ok := event["call"].(map[string]any); ok {
		if keys.AssistantID == "" {
			keys.AssistantID, _ = call["assistantId"].(string)
		}
		if keys.PhoneNumberID == "" {
			keys.PhoneNumberID, _ = call["phoneNumberId"].(string)
		}
	}
	return keys
}

func extractCallID(event map[string]any) string {
	if call, ok := event["call"].(map[string]any); ok {
		if id, ok := call["id"].(string); ok {
			return id
		}
	}
	id, _ := event["callId"].(string)
	return id
}

func extractCallerNumber(event map[string]any) string {
	if call, ok := event["call"].(map[string]any); ok {
		if customer, ok := call["customer"].(map[string]any); ok {
			if number, ok := customer["number"].(string); ok {
				return number
			}
		}
	}
	if customer, ok := event["customer"].(map[string]any); ok {
		if number, ok := customer["number"].(string); ok {
			return number
		}
	}
	return ""
}

func extractToolCalls(event map[string]any) []ToolInvocation {
	rawList, ok := event["toolCalls"].([]any)
	if !ok {
		rawList, _ = event["toolCallList"].([]any)
	}

	invocations := make([]ToolInvocation, 0, len(rawList))
	for _, item := range rawList {
		call, ok := item.(map[string]any)
		if !ok {
			invocations = append(invocations, ToolInvocation{
				ArgsErr: fmt.Errorf("tool call entry is not an object"),
			})
			continue
		}
		invocations = append(invocations, parseToolCall(call))
	}
	return invocations
}

func parseToolCall(call map[string]any) ToolInvocation {
	inv := ToolInvocation{}
	inv.ID, _ = call["id"].(string)

	name, arguments := call["name"], call["arguments"]
	if function, ok := call["function"].(map[string]any); ok {
		name = function["name"]
		arguments = function["arguments"]
	}
	inv.FunctionName, _ = name.(string)
	inv.Arguments, inv.ArgsErr = parseArguments(arguments)
	return inv
}

func extractFunctionCall(event map[string]any) *ToolInvocation {
	raw, ok := event["functionCall"].(map[string]any)
	if !ok {
		return nil
	}
	inv := ToolInvocation{}
	inv.FunctionName, _ = raw["name"].(string)

	arguments := raw["parameters"]
	if arguments == nil {
		arguments = raw["arguments"]
	}
	inv.Arguments, inv.ArgsErr = parseArguments(arguments)
	return &inv
}

// parseArguments accepts tool arguments either as a structured object or as a
// JSON-encoded string; both shapes occur in the wild.
func parseArguments(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("arguments have unsupported type %T", raw)
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
