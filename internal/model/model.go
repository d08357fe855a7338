package model

// Credentials holds the two session cookies the vendor API requires
type Credentials struct {
	ATACBUK   string `yaml:"at_acbuk" validate:"required"`
	UBIDACBUK string `yaml:"ubid_acbuk" validate:"required"`
}

// CapabilityMap maps a capability instance id ("3", "4", ...) to its decoded
// JSON value. A value is either a bare number or an object such as
// {"value": 21.5, "scale": "CELSIUS"}.
type CapabilityMap map[string]any

// Metric is a single zero-label gauge sample
type Metric struct {
	Name  string  `json:"name"`
	Help  string  `json:"help"`
	Value float64 `json:"value"`
}
