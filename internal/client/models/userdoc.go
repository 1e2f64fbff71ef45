package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNotAccount = errors.New("user: not an object")

// UserDocument is the stored users array read one element at a time.
// Accounts that do not match User exactly are coerced; elements that are
// not accounts at all are kept byte for byte and written back untouched.
type UserDocument struct {
	Users      []User
	unreadable []json.RawMessage
}

// DecodeUserDocument reads a stored users array. A missing document (nil
// or JSON null) is empty; anything else but an array is an error so the
// caller never rewrites a collection it could not read.
func DecodeUserDocument(b []byte) (UserDocument, error) {
	doc := UserDocument{Users: []User{}}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		if len(strings.TrimSpace(string(b))) == 0 {
			return doc, nil
		}
		return UserDocument{}, fmt.Errorf("users document: %w", err)
	}
	for _, raw := range raws {
		u, err := ReadUser(raw)
		if err != nil {
			doc.unreadable = append(doc.unreadable, raw)
			continue
		}
		doc.Users = append(doc.Users, u)
	}
	return doc, nil
}

// Unreadable is the number of elements kept as is.
func (d UserDocument) Unreadable() int { return len(d.unreadable) }

// MarshalJSON writes the accounts followed by the elements kept as is.
func (d UserDocument) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(d.Users)+len(d.unreadable))
	for _, u := range d.Users {
		b, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	out = append(out, d.unreadable...)
	return json.Marshal(out)
}

// ReadUser decodes one stored account. Scalars of the wrong type become
// strings, an allergies string is split on commas and a bad timestamp
// reads as zero. Only elements that are not JSON objects fail.
func ReadUser(raw json.RawMessage) (User, error) {
	if t := strings.TrimSpace(string(raw)); t == "" || t[0] != '{' {
		return User{}, errNotAccount
	}
	var u User
	if err := json.Unmarshal(raw, &u); err == nil {
		return u, nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return User{}, err
	}
	for k, v := range m {
		switch k {
		case "allergies":
			m[k] = allergyList(v)
		case "created_at", "updated_at":
			var ms Millis
			b, _ := json.Marshal(v)
			if json.Unmarshal(b, &ms) != nil {
				m[k] = 0
			}
		default:
			if _, ok := v.(string); !ok && v != nil {
				m[k] = text(v)
			}
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return User{}, err
	}
	u = User{}
	if err := json.Unmarshal(b, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func allergyList(v any) []string {
	switch a := v.(type) {
	case nil:
		return nil
	case string:
		return SanitizeAllergies(strings.Split(a, ","))
	case []any:
		out := make([]string, 0, len(a))
		for _, x := range a {
			out = append(out, text(x))
		}
		return SanitizeAllergies(out)
	default:
		return SanitizeAllergies([]string{text(a)})
	}
}
