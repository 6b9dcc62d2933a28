package school

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrMissingID = errors.New("school has no id")

	idKeys = []string{"_id", "id"}
)

// School is a directory record. Only ID is interpreted here; every other
// field is a display attribute kept verbatim for the consumers.
type School struct {
	ID    string
	Attrs map[string]json.RawMessage
}

// New returns a School with the given display attributes.
// It panics if an attribute cannot be encoded; meant for fixtures & tests.
func New(id string, attrs map[string]interface{}) School {
	sch := School{ID: id, Attrs: make(map[string]json.RawMessage, len(attrs))}
	for k, v := range attrs {
		raw, err := json.Marshal(v)
		if err != nil {
			panic(errors.Wrapf(err, "encoding attribute %q", k))
		}
		sch.Attrs[k] = raw
	}
	return sch
}

func (s School) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(s.Attrs)+1)
	for k, v := range s.Attrs {
		obj[k] = v
	}
	id, err := json.Marshal(s.ID)
	if err != nil {
		return nil, err
	}
	obj["id"] = id
	return json.Marshal(obj)
}

func (s *School) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj == nil {
		return errors.New("school must be a JSON object")
	}

	var id string
	for _, key := range idKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		delete(obj, key)
		if id != "" {
			continue
		}
		v, err := decodeID(raw)
		if err != nil {
			return errors.Wrapf(err, "decoding %q", key)
		}
		id = v
	}

	s.ID = id
	s.Attrs = obj
	return nil
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return "", errors.New("id must be a string or a number")
	}
	v, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return "", errors.New("id must be a string or a number")
	}
	// plain integers are kept verbatim, beyond float64 precision too
	if !strings.ContainsAny(num.String(), ".eE") {
		return num.String(), nil
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

// Clone returns a deep copy of s: the copy shares no attribute with s.
func (s School) Clone() School {
	cp := School{ID: s.ID}
	if s.Attrs == nil {
		return cp
	}
	cp.Attrs = make(map[string]json.RawMessage, len(s.Attrs))
	for k, v := range s.Attrs {
		cp.Attrs[k] = append(json.RawMessage(nil), v...)
	}
	return cp
}

// Validate checks that the School can be identified.
func (s School) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	return nil
}

// Attr decodes the attribute `name` into dest. ok is false if the attribute
// is absent, null or of another type.
func (s School) Attr(name string, dest interface{}) (ok bool) {
	raw, found := s.Attrs[name]
	if !found || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s School) str(name string) string {
	var v string
	s.Attr(name, &v)
	return v
}

func (s School) num(name string) (float64, bool) {
	var v float64
	ok := s.Attr(name, &v)
	return v, ok
}

func (s School) Name() string  { return s.str("name") }
func (s School) City() string  { return s.str("city") }
func (s School) Slug() string  { return s.str("slug") }
func (s School) Board() string { return s.str("board") }

func (s School) RatingAverage() (float64, bool) { return s.num("ratingAverage") }
func (s School) MinFee() (float64, bool)        { return s.num("minFee") }
func (s School) MaxFee() (float64, bool)        { return s.num("maxFee") }

func (s School) Facilities() []string {
	var v []string
	s.Attr("facilities", &v)
	return v
}

// IDs returns the ids of the given schools, in order.
func IDs(schools []School) []string {
	ids := make([]string, 0, len(schools))
	for _, s := range schools {
		ids = append(ids, s.ID)
	}
	return ids
}
