package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/CreativeStudio/internal/llm"
)

func TestCompleteText(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"m1","choices":[{"message":{"role":"assistant","content":"{\"title\":\"t\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
	}))
	defer srv.Close()

	p, err := llm.GetProvider("openrouter", map[string]string{"api_key": "test-key", "base_url": srv.URL + "/"})
	if err != nil {
		t.Fatalf("GetProvider failed: %v", err)
	}

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{
		Prompt:       "hello",
		SystemPrompt: "be brief",
		JSONMode:     true,
	})
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if resp.Text != `{"title":"t"}` || resp.TokensUsed != 7 || resp.ModelName != "m1" {
		t.Errorf("unexpected response %+v", resp)
	}

	msgs, _ := got["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", got["messages"])
	}
	if first := msgs[0].(map[string]interface{}); first["role"] != "system" {
		t.Errorf("first message role = %v", first["role"])
	}
	if rf, _ := got["response_format"].(map[string]interface{}); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", got["response_format"])
	}
}

func TestCompleteTextErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	p, err := llm.GetProvider("openrouter", map[string]string{"api_key": "k", "base_url": srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"}); err == nil {
		t.Error("expected an error for a 429 response")
	}
}

func TestInitializeRequiresKey(t *testing.T) {
	if _, err := llm.GetProvider("openrouter", map[string]string{}); err == nil {
		t.Error("expected missing key to fail")
	}
}
