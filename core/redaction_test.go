package core

import "testing"

func TestRedactSensitiveMap_MasksCredentialsKeepsIdentifiers(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"run_id":        "run_1",
		"authorization": "Bearer abc",
		"proxyPassword": "hunter2",
		"tokenCache":    "memory",
		"nested":        map[string]any{"bearer_token": "abc", "trace_id": "trace_nested"},
		"headers":       map[string]string{"Authorization": "Bearer abc", "Accept": "application/json"},
		"events":        []any{map[string]any{"client_secret": "s"}, map[string]any{"request_id": "req_1"}},
	})

	if redacted["run_id"] != "run_1" {
		t.Fatalf("expected run_id to remain visible, got %#v", redacted["run_id"])
	}
	if redacted["authorization"] != RedactedValue {
		t.Fatalf("expected authorization to be redacted, got %#v", redacted["authorization"])
	}
	if redacted["proxyPassword"] != RedactedValue {
		t.Fatalf("expected proxyPassword to be redacted, got %#v", redacted["proxyPassword"])
	}
	if redacted["tokenCache"] != "memory" {
		t.Fatalf("expected tokenCache to remain visible, got %#v", redacted["tokenCache"])
	}
	nested := redacted["nested"].(map[string]any)
	if nested["bearer_token"] != RedactedValue || nested["trace_id"] != "trace_nested" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	headers := redacted["headers"].(map[string]any)
	if headers["Authorization"] != RedactedValue || headers["Accept"] != "application/json" {
		t.Fatalf("unexpected header redaction %#v", headers)
	}
	events := redacted["events"].([]any)
	if events[0].(map[string]any)["client_secret"] != RedactedValue {
		t.Fatalf("expected slice entries to be redacted, got %#v", events[0])
	}
}

func TestConfigLogFields_MasksProxyPassword(t *testing.T) {
	cfg := Config{
		PodID:          "pod-1",
		ProxyURL:       "proxy.local:8080",
		ProxyUsername:  "svc",
		ProxyPassword:  "hunter2",
		PrivateKeyName: "bot.pem",
	}
	fields := cfg.LogFields()
	if fields["proxyPassword"] != RedactedValue {
		t.Fatalf("expected proxy password masked, got %#v", fields["proxyPassword"])
	}
	if fields["privateKeyName"] != "bot.pem" {
		t.Fatalf("expected key file name visible, got %#v", fields["privateKeyName"])
	}
	if _, ok := fields["logFile"]; ok {
		t.Fatalf("expected empty values to be omitted")
	}
}
