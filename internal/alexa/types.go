package alexa

import (
	"encoding/json"
	"strconv"
)

const entityTypeAppliance = "APPLIANCE"

type stateRequest struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
}

type stateRequestBody struct {
	StateRequests []stateRequest `json:"stateRequests"`
}

// stateResponse is the outer document of the phoenix state endpoint
type stateResponse struct {
	Errors       json.RawMessage `json:"errors"`
	DeviceStates []deviceState   `json:"deviceStates"`
}

type deviceState struct {
	Error json.RawMessage `json:"error"`
	// Each element is itself a JSON document encoded as a string
	CapabilityStates *[]string `json:"capabilityStates"`
}

// capabilityState is one decoded element of capabilityStates
type capabilityState struct {
	Instance any `json:"instance"`
	Value    any `json:"value"`
}

// instanceID normalises the instance to its string form. Numbers are
// accepted as 4 == "4"; any other type cannot name a capability.
func (cs capabilityState) instanceID() (string, bool) {
	switch v := cs.Instance.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// present reports whether a raw field holds a non-empty value: null, false,
// 0, "", [] and {} all count as absent.
func present(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}

	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
