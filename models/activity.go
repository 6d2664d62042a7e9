// File: models/activity.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Activity is one extracurricular offering of the roster.
// Only participants is interpreted. Every other key of the stored object
// (description, schedule, max_participants, ...) is kept verbatim in Fields
// and written back exactly as read. A nil Participants means the key was
// absent and is omitted again on write.
type Activity struct {
	Participants []string `json:"participants"`

	Fields map[string]json.RawMessage `json:"-"`
}

// Roster maps an activity name to its record. It is the whole persisted state.
type Roster map[string]Activity

// SignupResult is the confirmation payload returned after a successful signup.
type SignupResult struct {
	Message string `json:"message"`
}

func NewSignupResult(email, activityName string) *SignupResult {
	return &SignupResult{Message: fmt.Sprintf("Signed up %s for %s", email, activityName)}
}

const participantsKey = "participants"

var errActivityNotObject = errors.New("activity must be a JSON object")

func (a *Activity) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errActivityNotObject
	}

	*a = Activity{}
	if raw, ok := fields[participantsKey]; ok {
		delete(fields, participantsKey)
		if err := json.Unmarshal(raw, &a.Participants); err != nil {
			return fmt.Errorf("field %q: %w", participantsKey, err)
		}
	}
	if len(fields) > 0 {
		a.Fields = fields
	}
	return nil
}

func (a Activity) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Fields)+1)
	for k, v := range a.Fields {
		out[k] = v
	}
	if a.Participants != nil {
		out[participantsKey] = a.Participants
	} else {
		delete(out, participantsKey)
	}
	return json.Marshal(out)
}

// HasParticipant reports whether email is already on the list. Comparison is exact.
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (a Activity) Clone() Activity {
	var c Activity
	if a.Participants != nil {
		c.Participants = append([]string{}, a.Participants...)
	}
	if a.Fields != nil {
		c.Fields = make(map[string]json.RawMessage, len(a.Fields))
		for k, v := range a.Fields {
			c.Fields[k] = append(json.RawMessage{}, v...)
		}
	}
	return c
}

func (r Roster) Clone() Roster {
	c := make(Roster, len(r))
	for name, a := range r {
		c[name] = a.Clone()
	}
	return c
}

// Names returns activity names in lexical order.
func (r Roster) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
