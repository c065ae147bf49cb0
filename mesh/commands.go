package mesh

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Command names accepted by Session.Execute.
const (
	CmdAdd       = "add"
	CmdRename    = "rename"
	CmdRecolor   = "recolor"
	CmdClear     = "clear"
	CmdRecluster = "recluster"
)

// ErrUnknownCommand is returned by Execute for an unrecognized command name.
var ErrUnknownCommand = errors.New("unknown command")

// ErrNotFound is returned by Execute when a command names a point or group
// that does not exist. The session itself is left untouched.
var ErrNotFound = errors.New("not found")

type addPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type idPayload struct {
	ID string `json:"id"`
}

// Execute applies a command received from a message channel (MQTT, websocket).
// Payloads are JSON: {"lat":..,"lng":..} for add, {"id":".."} for rename and
// recolor; clear and recluster ignore the payload.
func (s *Session) Execute(command string, payload []byte) error {
	switch command {
	case CmdAdd:
		var p addPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decoding %s payload: %w", command, err)
		}
		if p.Lat == nil || p.Lng == nil {
			return fmt.Errorf("%s: lat and lng are required", command)
		}
		if err := ValidateLatLng(*p.Lat, *p.Lng); err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
		_, err := s.AddPoint(*p.Lat, *p.Lng)
		return err

	case CmdRename:
		id, err := decodeID(command, payload)
		if err != nil {
			return err
		}
		if _, ok := s.RenamePoint(id); !ok {
			return fmt.Errorf("point %s: %w", id, ErrNotFound)
		}
		return nil

	case CmdRecolor:
		id, err := decodeID(command, payload)
		if err != nil {
			return err
		}
		_, ok, err := s.RecolorGroup(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("group %s: %w", id, ErrNotFound)
		}
		return nil

	case CmdClear:
		s.ClearAll()
		return nil

	case CmdRecluster:
		return s.Recluster()
	}

	return fmt.Errorf("%q: %w", command, ErrUnknownCommand)
}

func decodeID(command string, payload []byte) (string, error) {
	var p idPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("decoding %s payload: %w", command, err)
	}
	if p.ID == "" {
		return "", fmt.Errorf("%s: id is required", command)
	}
	return p.ID, nil
}
