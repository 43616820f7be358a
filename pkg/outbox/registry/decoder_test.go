package registry

import (
	"encoding/json"
	"testing"

	"github.com/ninakhal/mealcart-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventCartTotalChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"state":"drained"}`)
	output, err := reg.Decode(enums.EventCartTotalChanged, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["state"] != "drained" {
		t.Fatalf("unexpected output %+v", output)
	}
}

func TestDecoderRegistryUnregisteredVersion(t *testing.T) {
	reg := NewDecoderRegistry()

	if _, err := reg.Decode(enums.EventUserCreated, 2, json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected error for unregistered decoder")
	}
}
