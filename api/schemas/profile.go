package schemas

import (
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Well-known profile field names as they appear in user data payloads.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldFullName = "fullname"
	FieldPhone    = "phone"
	FieldCVPath   = "cv_path"
)

// fieldAliases maps alternative spellings seen in user data onto the
// canonical field names.
var fieldAliases = map[string]string{
	"full_name": FieldFullName,
	"name":      FieldFullName,
	"cv":        FieldCVPath,
	"resume":    FieldCVPath,
	"tel":       FieldPhone,
}

// UserProfile is the data used to fill a form. The well-known fields are typed;
// anything else lands in Extra so ad hoc form fields are still available.
// A profile is never mutated by the synthesis engine.
type UserProfile struct {
	Email    string
	Username string
	Password string
	FullName string
	Phone    string
	CVPath   string
	// Extra holds every other key. Non-string values are kept as their JSON text.
	Extra map[string]string
}

// ParseUserProfile reads a profile from raw JSON. Payloads that are not a JSON
// object (null, arrays, scalars, garbage) yield an empty profile rather than an
// error; the caller proceeds with whatever could be read.
func ParseUserProfile(raw []byte) UserProfile {
	var p UserProfile
	if len(raw) == 0 {
		return p
	}
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p
	}
	for _, key := range applyOrder(fields) {
		p.set(key, rawToString(fields[key]))
	}
	return p
}

// applyOrder sorts the payload keys so that aliases are applied before
// canonical names, each group alphabetically. A canonical field therefore
// always wins over its aliases and the outcome never depends on map order.
func applyOrder(fields map[string]jsoniter.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		_, ai := fieldAliases[keys[i]]
		_, aj := fieldAliases[keys[j]]
		if ai != aj {
			return ai
		}
		return keys[i] < keys[j]
	})
	return keys
}

func rawToString(raw jsoniter.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func (p *UserProfile) set(key, value string) {
	canonical := key
	if alias, ok := fieldAliases[key]; ok {
		canonical = alias
	}
	switch canonical {
	case FieldEmail:
		p.Email = value
	case FieldUsername:
		p.Username = value
	case FieldPassword:
		p.Password = value
	case FieldFullName:
		p.FullName = value
	case FieldPhone:
		p.Phone = value
	case FieldCVPath:
		p.CVPath = value
	default:
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		p.Extra[key] = value
	}
}

// UnmarshalJSON implements json.Unmarshaler with the same leniency as ParseUserProfile.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	*p = ParseUserProfile(data)
	return nil
}

// MarshalJSON renders the profile as a flat object using canonical field names.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// Map returns every present field keyed by its canonical name.
func (p UserProfile) Map() map[string]string {
	out := make(map[string]string, 6+len(p.Extra))
	for k, v := range p.Extra {
		if v != "" {
			out[k] = v
		}
	}
	for _, kv := range [...]struct{ k, v string }{
		{FieldEmail, p.Email},
		{FieldUsername, p.Username},
		{FieldPassword, p.Password},
		{FieldFullName, p.FullName},
		{FieldPhone, p.Phone},
		{FieldCVPath, p.CVPath},
	} {
		if kv.v != "" {
			out[kv.k] = kv.v
		}
	}
	return out
}

// Get returns the value of a field by canonical or alias name.
func (p UserProfile) Get(name string) string {
	if alias, ok := fieldAliases[name]; ok {
		name = alias
	}
	switch name {
	case FieldEmail:
		return p.Email
	case FieldUsername:
		return p.Username
	case FieldPassword:
		return p.Password
	case FieldFullName:
		return p.FullName
	case FieldPhone:
		return p.Phone
	case FieldCVPath:
		return p.CVPath
	}
	return p.Extra[name]
}

// FieldNames returns the names of all non-empty fields in sorted order.
// Values are never exposed, which makes the result safe for logs and cache keys.
func (p UserProfile) FieldNames() []string {
	m := p.Map()
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether the profile has no usable field.
func (p UserProfile) IsEmpty() bool {
	return len(p.Map()) == 0
}

// String hides values so an accidental %v never prints a password.
func (p UserProfile) String() string {
	return "UserProfile{" + strconv.Itoa(len(p.FieldNames())) + " fields}"
}
