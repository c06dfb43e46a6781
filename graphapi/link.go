package graphapi

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Link is one edge of a workflow graph, connecting a node output slot to a
// node input slot. The editor serializes top-level links as 6-element tuples
// and subgraph links as objects; both forms are accepted and re-emitted in the
// form they arrived in.
type Link struct {
	ID         int
	OriginID   string
	OriginSlot int
	TargetID   string
	TargetSlot int
	Type       string

	isObjectFormat bool
}

func (l *Link) UnmarshalJSON(b []byte) error {
	// tuple format first
	var tmp []interface{}
	if err := json.Unmarshal(b, &tmp); err == nil {
		if len(tmp) != 6 {
			return errors.New("wrong number of fields in JSON array")
		}

		l.ID = asInt(tmp[0])
		l.OriginID = asIDString(tmp[1])
		l.OriginSlot = asInt(tmp[2])
		l.TargetID = asIDString(tmp[3])
		l.TargetSlot = asInt(tmp[4])
		l.Type, _ = tmp[5].(string)

		return nil
	}

	// object format
	var obj struct {
		ID         int             `json:"id"`
		OriginID   json.RawMessage `json:"origin_id"`
		OriginSlot int             `json:"origin_slot"`
		TargetID   json.RawMessage `json:"target_id"`
		TargetSlot int             `json:"target_slot"`
		Type       string          `json:"type"`
	}

	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	l.ID = obj.ID
	l.OriginID = flexibleID(obj.OriginID)
	l.OriginSlot = obj.OriginSlot
	l.TargetID = flexibleID(obj.TargetID)
	l.TargetSlot = obj.TargetSlot
	l.Type = obj.Type
	l.isObjectFormat = true

	return nil
}

func (l *Link) MarshalJSON() ([]byte, error) {
	if l.isObjectFormat {
		obj := struct {
			ID         int         `json:"id"`
			OriginID   interface{} `json:"origin_id"`
			OriginSlot int         `json:"origin_slot"`
			TargetID   interface{} `json:"target_id"`
			TargetSlot int         `json:"target_slot"`
			Type       string      `json:"type"`
		}{
			ID:         l.ID,
			OriginID:   idValue(l.OriginID),
			OriginSlot: l.OriginSlot,
			TargetID:   idValue(l.TargetID),
			TargetSlot: l.TargetSlot,
			Type:       l.Type,
		}
		return json.Marshal(obj)
	}

	tmp := []interface{}{
		l.ID,
		idValue(l.OriginID),
		l.OriginSlot,
		idValue(l.TargetID),
		l.TargetSlot,
		l.Type,
	}

	return json.Marshal(tmp)
}

func asInt(v interface{}) int {
	switch value := v.(type) {
	case float64:
		return int(value)
	case int:
		return value
	case string:
		i, _ := strconv.Atoi(value)
		return i
	}
	return 0
}

func asIDString(v interface{}) string {
	switch value := v.(type) {
	case float64:
		return strconv.FormatInt(int64(value), 10)
	case string:
		return value
	}
	return ""
}

// idValue renders an id string back as a JSON number when it is numeric, which
// is how the editor wrote it in the first place.
func idValue(id string) interface{} {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
