package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"superyield/internal/config"
	"superyield/internal/prompt"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(config.ReasonerConfig{Provider: "openai"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("openai err=%v want ErrNotConfigured", err)
	}
	if _, err := New(config.ReasonerConfig{Provider: "anthropic", APIKey: "sk-openai"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("anthropic err=%v want ErrNotConfigured", err)
	}
	if _, err := New(config.ReasonerConfig{Provider: "llama", APIKey: "x"}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestNewSelectsModel(t *testing.T) {
	svc, err := New(config.ReasonerConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if svc.Model() != defaultOpenAIModel {
		t.Fatalf("model=%s want=%s", svc.Model(), defaultOpenAIModel)
	}
	svc, err = New(config.ReasonerConfig{Provider: "anthropic", AnthropicAPIKey: "k", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if svc.Model() != defaultAnthropicModel {
		t.Fatalf("model=%s want=%s", svc.Model(), defaultAnthropicModel)
	}
}

func TestOpenAICompleteSendsSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"ok\":true}"}}]}`)
	}))
	defer srv.Close()

	svc, err := NewOpenAI(config.ReasonerConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := svc.Complete(context.Background(), Request{
		System:      "sys",
		User:        "user",
		Temperature: 0.3,
		MaxTokens:   2000,
		Schema:      &Schema{Name: "allocation_decision", Definition: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("out=%q", out)
	}
	rf, _ := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Fatalf("response_format=%v", got["response_format"])
	}
	js, _ := rf["json_schema"].(map[string]any)
	if js["name"] != "allocation_decision" || js["strict"] != true {
		t.Fatalf("json_schema=%v", js)
	}
	if got["temperature"] != 0.3 {
		t.Fatalf("temperature=%v", got["temperature"])
	}
}

func TestOpenAIStreamYieldsFragmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo ", "{}"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc, err := NewOpenAI(config.ReasonerConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	stream, err := svc.Stream(context.Background(), Request{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	var parts []string
	for stream.Next() {
		parts = append(parts, stream.Text())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream err: %v", err)
	}
	if strings.Join(parts, "|") != "Hel|lo |{}" {
		t.Fatalf("parts=%q", parts)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAnthropicCompleteForcesTool(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[
				{"type":"text","text":"calling the tool"},
				{"type":"tool_use","id":"toolu_1","name":"allocation_decision","input":{"targetVault":"0xabc","confidence":0.9}}
			],
			"stop_reason":"tool_use","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":20}}`)
	}))
	defer srv.Close()

	svc, err := NewAnthropic(config.ReasonerConfig{AnthropicAPIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := svc.Complete(context.Background(), Request{
		System:      "sys",
		User:        "user",
		Temperature: 0.3,
		MaxTokens:   2000,
		Schema: &Schema{
			Name:        prompt.DecisionSchemaName,
			Description: "allocation decision",
			Definition:  prompt.DecisionSchema(),
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output not json: %q", out)
	}
	if decoded["targetVault"] != "0xabc" || decoded["confidence"] != 0.9 {
		t.Fatalf("out=%q", out)
	}

	tc, _ := got["tool_choice"].(map[string]any)
	if tc["type"] != "tool" || tc["name"] != prompt.DecisionSchemaName {
		t.Fatalf("tool_choice=%v", got["tool_choice"])
	}
	tools, _ := got["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools=%v", got["tools"])
	}
	tool, _ := tools[0].(map[string]any)
	if tool["name"] != prompt.DecisionSchemaName {
		t.Fatalf("tool name=%v", tool["name"])
	}
	schema, _ := tool["input_schema"].(map[string]any)
	required, _ := schema["required"].([]any)
	want := prompt.DecisionFields()
	if len(required) != len(want) || len(want) != 10 {
		t.Fatalf("required=%v want %v", required, want)
	}
	for i, f := range want {
		if required[i] != f {
			t.Fatalf("required[%d]=%v want %s", i, required[i], f)
		}
	}
	props, _ := schema["properties"].(map[string]any)
	if len(props) != len(want) {
		t.Fatalf("properties=%d want %d", len(props), len(want))
	}
	if got["model"] != defaultAnthropicModel {
		t.Fatalf("model=%v", got["model"])
	}
}

func TestAnthropicCompleteFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"plain "},{"type":"text","text":"reply"}],
			"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":2}}`)
	}))
	defer srv.Close()

	svc, err := NewAnthropic(config.ReasonerConfig{AnthropicAPIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := svc.Complete(context.Background(), Request{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "plain reply" {
		t.Fatalf("out=%q", out)
	}
}

func TestAnthropicStreamYieldsFragmentsInOrder(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent := func(name, data string) {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
		}
		writeEvent("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":1}}}`)
		writeEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent("ping", `{"type":"ping"}`)
		for _, part := range []string{"Hel", "lo ", "{}"} {
			writeEvent("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, part))
		}
		writeEvent("content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":3}}`)
		writeEvent("message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	svc, err := NewAnthropic(config.ReasonerConfig{AnthropicAPIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	stream, err := svc.Stream(context.Background(), Request{
		System: "s",
		User:   "u",
		Schema: &Schema{Name: prompt.DecisionSchemaName, Definition: prompt.DecisionSchema()},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	var parts []string
	for stream.Next() {
		parts = append(parts, stream.Text())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream err: %v", err)
	}
	if strings.Join(parts, "|") != "Hel|lo |{}" {
		t.Fatalf("parts=%q", parts)
	}
	if got["stream"] != true {
		t.Fatalf("stream flag=%v", got["stream"])
	}
	if _, ok := got["tool_choice"]; ok {
		t.Fatalf("streamed request must not force a tool: %v", got["tool_choice"])
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestStringListAcceptsDecodedSchema(t *testing.T) {
	if got := stringList([]string{"a", "b"}); strings.Join(got, ",") != "a,b" {
		t.Fatalf("typed=%v", got)
	}
	if got := stringList([]any{"a", 1, "b"}); strings.Join(got, ",") != "a,b" {
		t.Fatalf("decoded=%v", got)
	}
	if got := stringList(nil); got != nil {
		t.Fatalf("nil=%v", got)
	}
}
