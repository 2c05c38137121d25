package voice

import (
	"testing"
)

func TestNormalizeUnwrapsNestedMessage(t *testing.T) {
	raw := []byte(`{"message":{"type":"call.started","call":{"id":"c1","customer":{"number":"+15551234567"}},"phoneNumber":{"id":"p1","number":"+15559999999"}}}`)

	ev := Normalize(raw)
	if ev.Kind != EventCallStarted {
		t.Fatalf("expected call started, got kind %d", ev.Kind)
	}
	if ev.CallID != "c1" {
		t.Errorf("expected call id c1, got %q", ev.CallID)
	}
	if ev.CallerNumber != "+15551234567" {
		t.Errorf("expected caller number, got %q", ev.CallerNumber)
	}
	if ev.Keys.PhoneNumberID != "p1" || ev.Keys.PhoneNumber != "+15559999999" {
		t.Errorf("unexpected keys: %+v", ev.Keys)
	}
}

func TestNormalizeAcceptsBareEvent(t *testing.T) {
	raw := []byte(`{"type":"call.ended","call":{"id":"c2"},"durationSeconds":95,"transcript":"hi","recordingUrl":"https://rec"}`)

	ev := Normalize(raw)
	if ev.Kind != EventCallEnded {
		t.Fatalf("expected call ended, got kind %d", ev.Kind)
	}
	if ev.DurationSeconds != 95 || ev.Transcript != "hi" || ev.RecordingURL != "https://rec" {
		t.Errorf("unexpected fields: %+v", ev)
	}
}

func TestNormalizeTreatsEndOfCallReportAsCallEnded(t *testing.T) {
	ev := Normalize([]byte(`{"type":"end-of-call-report","call":{"id":"c3"}}`))
	if ev.Kind != EventCallEnded {
		t.Fatalf("expected end-of-call-report to map to call ended, got kind %d", ev.Kind)
	}
}

func TestNormalizeIgnoresUnknownType(t *testing.T) {
	for _, raw := range []string{
		`{"type":"speech-update","call":{"id":"c4"}}`,
		`{"unexpected":"shape"}`,
		`not even json`,
	} {
		ev := Normalize([]byte(raw))
		if ev.Kind != EventIgnored {
			t.Errorf("expected %q to be ignored, got kind %d", raw, ev.Kind)
		}
	}
}

func TestNormalizeParsesStringAndStructuredArguments(t *testing.T) {
	raw := []byte(`{"type":"tool-calls","assistantId":"a1","toolCalls":[
		{"id":"t1","function":{"name":"check_availability","arguments":"{\"date\":\"2026-09-12\",\"partySize\":4}"}},
		{"id":"t2","function":{"name":"create_booking","arguments":{"name":"Ada"}}},
		{"id":"t3","function":{"name":"cancel_booking","arguments":"{broken"}}
	]}`)

	ev := Normalize(raw)
	if ev.Kind != EventToolCalls {
		t.Fatalf("expected tool calls, got kind %d", ev.Kind)
	}
	if ev.Keys.AssistantID != "a1" {
		t.Errorf("expected assistant id a1, got %q", ev.Keys.AssistantID)
	}
	if len(ev.ToolCalls) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(ev.ToolCalls))
	}

	if ev.ToolCalls[0].ArgsErr != nil {
		t.Errorf("string-encoded arguments should parse, got %v", ev.ToolCalls[0].ArgsErr)
	}
	if ev.ToolCalls[0].Arguments["date"] != "2026-09-12" {
		t.Errorf("unexpected parsed arguments: %v", ev.ToolCalls[0].Arguments)
	}
	if ev.ToolCalls[1].ArgsErr != nil {
		t.Errorf("structured arguments should parse, got %v", ev.ToolCalls[1].ArgsErr)
	}
	if ev.ToolCalls[2].ArgsErr == nil {
		t.Error("broken JSON arguments must set ArgsErr")
	}
}

func TestNormalizeFunctionCall(t *testing.T) {
	raw := []byte(`{"type":"function-call","assistantId":"a2","functionCall":{"name":"answer_question","parameters":{"question":"do you have vegan options?"}}}`)

	ev := Normalize(raw)
	if ev.Kind != EventFunctionCall {
		t.Fatalf("expected function call, got kind %d", ev.Kind)
	}
	if ev.FunctionCall == nil || ev.FunctionCall.FunctionName != "answer_question" {
		t.Fatalf("unexpected function call: %+v", ev.FunctionCall)
	}
	if ev.FunctionCall.Arguments["question"] != "do you have vegan options?" {
		t.Errorf("unexpected arguments: %v", ev.FunctionCall.Arguments)
	}
}
