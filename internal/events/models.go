package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventData is the client-authored part of a post. Only the category is
// interpreted; eventText and any other keys are stored and returned as sent.
type EventData struct {
	EventText     string                 `json:"eventText,omitempty" bson:"eventText,omitempty"`
	EventCategory Category               `json:"eventCategory,omitempty" bson:"eventCategory,omitempty"`
	Extra         map[string]interface{} `json:"-" bson:",inline"`
}

const (
	eventTextKey     = "eventText"
	eventCategoryKey = "eventCategory"
)

// asMap flattens d into the key set the client sent.
func (d EventData) asMap() map[string]interface{} {
	m := make(map[string]interface{}, len(d.Extra)+2)
	for k, v := range d.Extra {
		m[k] = v
	}
	if d.EventText != "" {
		m[eventTextKey] = d.EventText
	}
	if d.EventCategory != "" {
		m[eventCategoryKey] = string(d.EventCategory)
	}
	return m
}

// eventDataFromMap splits a decoded payload into typed fields and Extra.
// A non-string category is kept as its text so validation rejects it.
func eventDataFromMap(m map[string]interface{}) (EventData, error) {
	var d EventData
	for k, v := range m {
		switch k {
		case eventTextKey:
			s, ok := v.(string)
			if !ok && v != nil {
				return EventData{}, fmt.Errorf("eventText must be a string, got %T", v)
			}
			d.EventText = s
		case eventCategoryKey:
			if v != nil {
				d.EventCategory = Category(fmt.Sprint(v))
			}
		default:
			if d.Extra == nil {
				d.Extra = map[string]interface{}{}
			}
			d.Extra[k] = v
		}
	}
	return d, nil
}

func (d EventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.asMap())
}

func (d *EventData) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	parsed, err := eventDataFromMap(m)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EventEntry is an immutable geotagged post. LocationHash is the geohash of
// (Lat, Lng) and is the field proximity queries range over.
type EventEntry struct {
	ID           string    `json:"id" bson:"_id"`
	EventData    EventData `json:"eventData" bson:"eventData"`
	LocationHash string    `json:"locationHash" bson:"locationHash"`
	Lat          float64   `json:"lat" bson:"lat"`
	Lng          float64   `json:"lng" bson:"lng"`
	Ts           time.Time `json:"ts" bson:"ts"`
}
