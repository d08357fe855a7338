package capability

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Instance ids reported by the air quality monitor
const (
	Temperature       = "3"
	Humidity          = "4"
	VOC               = "5"
	ParticulateMatter = "6"
	CarbonMonoxide    = "8"
	AirQuality        = "9"
)

// ErrMalformed is wrapped by every decode failure
var ErrMalformed = errors.New("malformed capability value")

// Reading is a decoded capability value ready to become a gauge
type Reading struct {
	// Suffix is the metric name without the namespace prefix
	Suffix string
	Value  float64
}

// Decoder turns a raw capability value into a Reading
type Decoder func(raw any) (Reading, error)

// Capability describes one known instance id
type Capability struct {
	Instance string
	Name     string
	Help     string
	Decode   Decoder
}

var validate = validator.New()

// table is ordered; translation emits metrics in this order
var table = []Capability{
	{
		Instance: Temperature,
		Name:     "temperature",
		Help:     "Temperature",
		Decode:   decodeTemperature,
	},
	{
		Instance: Humidity,
		Name:     "humidity_percent",
		Help:     "Humidity",
		Decode:   scalar("humidity_percent"),
	},
	{
		Instance: VOC,
		Name:     "voc_score",
		Help:     "Volatile Organic Compound score",
		Decode:   scalar("voc_score"),
	},
	{
		Instance: ParticulateMatter,
		Name:     "particulate_matter_ug_m3",
		Help:     "Particulate Matter in micrograms per cubic meter",
		Decode:   scalar("particulate_matter_ug_m3"),
	},
	{
		Instance: CarbonMonoxide,
		Name:     "carbon_monoxide_ppm",
		Help:     "Carbon Monoxide parts per million",
		Decode:   scalar("carbon_monoxide_ppm"),
	},
	{
		Instance: AirQuality,
		Name:     "quality_score",
		Help:     "Air quality score",
		Decode:   scalar("quality_score"),
	},
}

var byInstance = func() map[string]Capability {
	m := make(map[string]Capability, len(table))
	for _, c := range table {
		m[c.Instance] = c
	}
	return m
}()

// All returns the known capabilities in emission order
func All() []Capability {
	out := make([]Capability, len(table))
	copy(out, table)
	return out
}

// Lookup returns the capability registered for an instance id
func Lookup(instance string) (Capability, bool) {
	c, ok := byInstance[instance]
	return c, ok
}

// scalar decodes bare numbers and numeric strings
func scalar(suffix string) Decoder {
	return func(raw any) (Reading, error) {
		if raw == nil {
			return Reading{}, fmt.Errorf("%w: %s is null", ErrMalformed, suffix)
		}
		if _, isMap := raw.(map[string]any); isMap {
			return Reading{}, fmt.Errorf("%w: %s is an object", ErrMalformed, suffix)
		}
		v, err := toFinite(raw)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: %s: %v", ErrMalformed, suffix, err)
		}
		return Reading{Suffix: suffix, Value: v}, nil
	}
}

// toFinite converts numbers and numeric strings; booleans and NaN/Inf are
// not readings
func toFinite(raw any) (float64, error) {
	if _, isBool := raw.(bool); isBool {
		return 0, fmt.Errorf("unable to cast %#v of type %T to float64", raw, raw)
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return v, nil
}

// temperatureValue is the object shape of instance 3
type temperatureValue struct {
	Value float64
	Scale string `validate:"required,alpha"`
}

// decodeTemperature reads {"value": 21.5, "scale": "CELSIUS"}; the scale
// becomes part of the metric name
func decodeTemperature(raw any) (Reading, error) {
	obj, err := cast.ToStringMapE(raw)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: temperature is not an object", ErrMalformed)
	}

	rawValue, ok := obj["value"]
	if !ok || rawValue == nil {
		return Reading{}, fmt.Errorf("%w: temperature has no value", ErrMalformed)
	}

	var t temperatureValue
	if t.Value, err = toFinite(rawValue); err != nil {
		return Reading{}, fmt.Errorf("%w: temperature value: %v", ErrMalformed, err)
	}
	if scale, ok := obj["scale"].(string); ok {
		t.Scale = strings.ToLower(scale)
	}
	if err := validate.Struct(t); err != nil {
		return Reading{}, fmt.Errorf("%w: temperature scale %q", ErrMalformed, t.Scale)
	}

	return Reading{Suffix: "temperature_" + t.Scale, Value: t.Value}, nil
}
