package isotope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidParam = errors.New("invalid isotope parameter")

// Isotope is identified by its proton number Z and mass number A.
type Isotope struct {
	Z int `json:"Z"`
	A int `json:"A"`
}

// FolderKey is the name of the directory holding the isotope's data files.
func (i Isotope) FolderKey() string {
	return strconv.Itoa(i.Z) + "_" + strconv.Itoa(i.A)
}

func (i Isotope) String() string {
	return fmt.Sprintf("Z=%d A=%d", i.Z, i.A)
}

// Params holds user input where either value may not have been entered yet.
type Params struct {
	Z *int `json:"Z,omitempty"`
	A *int `json:"A,omitempty"`
}

func NewParams(z, a int) Params {
	return Params{Z: &z, A: &a}
}

func (p Params) Complete() bool {
	return p.Z != nil && p.A != nil
}

// Isotope returns the identified isotope. ok is false unless both values are set.
func (p Params) Isotope() (Isotope, bool) {
	if !p.Complete() {
		return Isotope{}, false
	}
	return Isotope{Z: *p.Z, A: *p.A}, true
}

// ParseQuery reads Z and A through get, which returns "" for absent keys.
// Lower-case key names are accepted as well.
func ParseQuery(get func(key string) string) (Params, error) {
	var p Params
	var err error

	if p.Z, err = parseParam("Z", firstNonEmpty(get("Z"), get("z"))); err != nil {
		return Params{}, err
	}
	if p.A, err = parseParam("A", firstNonEmpty(get("A"), get("a"))); err != nil {
		return Params{}, err
	}
	return p, nil
}

// ParsePath accepts the legacy route form where the parameters are the path
// itself, e.g. "/A=56&Z=26".
func ParsePath(path string) (Params, error) {
	values := make(map[string]string)
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return Params{}, nil
	}
	for _, pair := range strings.Split(trimmed, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		values[key] = value
	}
	return ParseQuery(func(key string) string { return values[key] })
}

func parseParam(name, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParam, name, raw)
	}
	if value <= 0 {
		return nil, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParam, name, value)
	}
	return &value, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
