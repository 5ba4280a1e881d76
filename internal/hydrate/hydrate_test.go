package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type valueRequest struct {
	Value any `json:"value"`
}

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "requests.json")
	ctx := Context{Domain: "42", Group: "welcome", Item: "channel"}

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[valueRequest](buildOptions(tc)...)
			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if got := fmt.Sprint(result.Value); got != tc.Expect.Value {
				t.Fatalf("expected value %q, got %q (%T)", tc.Expect.Value, got, result.Value)
			}
		})
	}
}

func TestUseNumberYieldsJSONNumber(t *testing.T) {
	payload, err := ReadPayload(strings.NewReader(`{"value": 7}`))
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	result, err := NewDecoder(WithUseNumber[valueRequest]()).Decode(Context{}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := result.Value.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", result.Value)
	}
}

func TestReadPayload(t *testing.T) {
	payload, err := ReadPayload(strings.NewReader(""))
	if err != nil || len(payload) != 0 {
		t.Fatalf("expected empty payload for empty body, got %v (%v)", payload, err)
	}
	if _, err := ReadPayload(strings.NewReader(`[1,2]`)); err == nil {
		t.Fatalf("expected arrays to be rejected")
	}
	payload, err = ReadPayload(strings.NewReader(`null`))
	if err != nil || payload == nil {
		t.Fatalf("expected null to yield an empty payload, got %v (%v)", payload, err)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"value": "<#1>"}
	decoder := NewDecoder(WithPreHook[valueRequest](stripMentionPreHook))
	if _, err := decoder.Decode(Context{}, input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if input["value"] != "<#1>" {
		t.Fatalf("pre-hook mutated caller payload: %v", input)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[valueRequest]().Decode(Context{Domain: "1", Group: "g", Item: "i"}, nil)
	if err == nil || !strings.Contains(err.Error(), "1 g/i") {
		t.Fatalf("expected nil payload error naming the selector, got %v", err)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[valueRequest] {
	var options []DecoderOption[valueRequest]
	for _, name := range tc.Options {
		switch name {
		case "use_number":
			options = append(options, WithUseNumber[valueRequest]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[valueRequest]())
		}
	}
	for _, name := range tc.PreHooks {
		if name == "strip_mention" {
			options = append(options, WithPreHook[valueRequest](stripMentionPreHook))
		}
	}
	for _, name := range tc.PostHooks {
		if name == "require_value" {
			options = append(options, WithPostHook[valueRequest](requireValuePostHook))
		}
	}
	if tc.CustomDecoder == "legacy_envelope" {
		options = append(options, WithCustomDecoder[valueRequest](legacyEnvelopeDecoder))
	}
	return options
}

func stripMentionPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["value"].(string)
	if !ok {
		return payload, nil
	}
	if strings.HasPrefix(value, "<#") && strings.HasSuffix(value, ">") {
		payload["value"] = strings.TrimSuffix(strings.TrimPrefix(value, "<#"), ">")
	}
	return payload, nil
}

func requireValuePostHook(_ Context, req *valueRequest) error {
	if req.Value == nil {
		return errors.New("value is required")
	}
	return nil
}

func legacyEnvelopeDecoder(_ Context, payload map[string]any) (valueRequest, error) {
	value, ok := payload["newvalue"]
	if !ok {
		return valueRequest{}, errors.New("missing newvalue")
	}
	return valueRequest{Value: value}, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string         `json:"name"`
	Input         map[string]any `json:"input"`
	Expect        expectation    `json:"expect"`
	ExpectErr     string         `json:"expectErr"`
	PreHooks      []string       `json:"preHooks"`
	PostHooks     []string       `json:"postHooks"`
	Options       []string       `json:"options"`
	CustomDecoder string         `json:"customDecoder"`
}

type expectation struct {
	Value string `json:"value"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
