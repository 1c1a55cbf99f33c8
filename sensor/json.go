package sensor

import (
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

var ErrBadJSON = errors.Mark(errors.New("sensor: malformed reading json"), abi.ErrEncodeFailed)

// ParseJSON reads one reading from a JSON object. Metadata may be given as
// an object, whose key order is preserved, or as an array of
// {"key","value"} pairs. sensor_type accepts the ordinal or the type name.
func ParseJSON(ac *arena.Context, data []byte) (Reading, error) {
	var s Snapshot
	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		var err error
		switch string(key) {
		case "timestamp":
			s.Timestamp, err = strconv.ParseUint(string(value), 10, 64)
		case "sensor_id":
			s.SensorID, err = parseString(value, dt)
		case "sensor_type":
			s.SensorType, err = parseSensorType(value, dt)
		case "value":
			s.Value, err = jsonparser.ParseFloat(value)
		case "unit":
			s.Unit, err = parseString(value, dt)
		case "location":
			s.Location, err = parseString(value, dt)
		case "metadata":
			s.Metadata, err = parseMetadata(value, dt)
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return Reading{}, errors.Wrapf(ErrBadJSON, "%v", err)
	}
	return FromSnapshot(ac, s)
}

func parseString(value []byte, dt jsonparser.ValueType) (string, error) {
	switch dt {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Null:
		return "", nil
	default:
		return "", errors.Newf("expected string, got %s", dt)
	}
}

func parseSensorType(value []byte, dt jsonparser.ValueType) (uint16, error) {
	if dt == jsonparser.Number {
		n, err := strconv.ParseUint(string(value), 10, 16)
		return uint16(n), err
	}
	name, err := parseString(value, dt)
	if err != nil {
		return 0, err
	}
	for t := abi.SensorTemperature; t <= abi.SensorVibration; t++ {
		if strings.EqualFold(abi.SensorTypeName(t), name) {
			return t, nil
		}
	}
	return 0, errors.Newf("unknown sensor type %q", name)
}

func parseMetadata(value []byte, dt jsonparser.ValueType) ([]Pair, error) {
	var out []Pair
	switch dt {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Object:
		err := jsonparser.ObjectEach(value, func(k, v []byte, vt jsonparser.ValueType, _ int) error {
			key, err := jsonparser.ParseString(k)
			if err != nil {
				return err
			}
			val, err := parseString(v, vt)
			if err != nil {
				return errors.Wrapf(err, "metadata %q", key)
			}
			out = append(out, Pair{Key: key, Value: val})
			return nil
		})
		return out, err
	case jsonparser.Array:
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			if vt != jsonparser.Object {
				inner = errors.Newf("metadata entry: expected object, got %s", vt)
				return
			}
			var p Pair
			if p.Key, inner = jsonparser.GetString(v, "key"); inner != nil {
				return
			}
			if p.Value, inner = jsonparser.GetString(v, "value"); inner != nil {
				return
			}
			out = append(out, p)
		})
		if err != nil {
			return nil, err
		}
		return out, inner
	default:
		return nil, errors.Newf("metadata: expected object or array, got %s", dt)
	}
}

// ParseJSONList reads either one reading object or an array of them.
func ParseJSONList(ac *arena.Context, data []byte) ([]Reading, error) {
	_, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrapf(ErrBadJSON, "%v", err)
	}
	switch dt {
	case jsonparser.Object:
		r, err := ParseJSON(ac, data)
		if err != nil {
			return nil, err
		}
		return []Reading{r}, nil
	case jsonparser.Array:
	default:
		return nil, errors.Wrapf(ErrBadJSON, "expected object or array, got %s", dt)
	}
	var (
		out   []Reading
		inner error
	)
	_, err = jsonparser.ArrayEach(data, func(v []byte, vt jsonparser.ValueType, _ int, err error) {
		if inner != nil {
			return
		}
		if err != nil {
			inner = errors.Wrapf(ErrBadJSON, "%v", err)
			return
		}
		if vt != jsonparser.Object {
			inner = errors.Wrapf(ErrBadJSON, "reading %d: expected object, got %s", len(out), vt)
			return
		}
		r, err := ParseJSON(ac, v)
		if err != nil {
			inner = errors.Wrapf(err, "reading %d", len(out))
			return
		}
		out = append(out, r)
	})
	if err != nil {
		return nil, errors.Wrapf(ErrBadJSON, "%v", err)
	}
	if inner != nil {
		return nil, inner
	}
	return out, nil
}
