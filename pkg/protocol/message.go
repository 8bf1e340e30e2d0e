package protocol

import (
	"encoding/json"
	"fmt"
)

// RequestType names a control-socket request.
type RequestType string

// Request types accepted by the daemon.
const (
	ReqPing      RequestType = "ping"       // liveness check
	ReqReport    RequestType = "report"     // apply a status report
	ReqInteract  RequestType = "interact"   // one step of the interactive report menu
	ReqGist      RequestType = "gist"       // render the current summary
	ReqMenu      RequestType = "menu"       // render the status menu
	ReqSweep     RequestType = "sweep"      // expire outdated statuses now
	ReqMenuInit  RequestType = "menu_init"  // post a status menu and keep it synced
	ReqMenuClear RequestType = "menu_clear" // stop syncing a channel's menus
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case ReqPing, ReqReport, ReqInteract, ReqGist, ReqMenu, ReqSweep, ReqMenuInit, ReqMenuClear:
		return true
	default:
		return false
	}
}

// Request is one line-delimited JSON message sent to the daemon. Exactly the
// payload matching Type is set.
type Request struct {
	Type        RequestType         `json:"type"`
	Report      *ReportPayload      `json:"report,omitempty"`
	Interaction *InteractionPayload `json:"interaction,omitempty"`
	Menu        *MenuPayload        `json:"menu,omitempty"`
}

// ReportPayload carries a status report in user syntax.
type ReportPayload struct {
	Reporter   string `json:"reporter,omitempty"`
	Escalators string `json:"escalators"` // "all", "4-2", or "4/2"
	Status     string `json:"status"`     // OPEN, DOWN, BLOCKED
}

// InteractionPayload carries one report-menu component interaction.
type InteractionPayload struct {
	User      string `json:"user"`
	Component string `json:"component"`
	Value     string `json:"value,omitempty"`
}

// MenuPayload identifies where a status menu lives.
type MenuPayload struct {
	Guild   string `json:"guild,omitempty"`
	Channel string `json:"channel"`
}

// Response is the daemon's single-line reply.
type Response struct {
	OK        bool     `json:"ok"`
	Error     string   `json:"error,omitempty"`
	Kind      string   `json:"kind,omitempty"`       // report kind
	Affected  []string `json:"affected,omitempty"`   // escalators touched or expired
	Text      string   `json:"text,omitempty"`       // rendered gist, menu, or alert
	Delivered int      `json:"delivered,omitempty"`  // receivers reached by an interaction
	MessageID string   `json:"message_id,omitempty"` // posted menu message
	Removed   int      `json:"removed,omitempty"`
}

// Validate checks that the payload required by Type is present.
func (r Request) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	switch r.Type {
	case ReqReport:
		if r.Report == nil {
			return fmt.Errorf("%s request missing report payload", r.Type)
		}
	case ReqInteract:
		if r.Interaction == nil || r.Interaction.User == "" || r.Interaction.Component == "" {
			return fmt.Errorf("%s request needs user and component", r.Type)
		}
	case ReqMenuInit, ReqMenuClear:
		if r.Menu == nil || r.Menu.Channel == "" {
			return fmt.Errorf("%s request needs a channel", r.Type)
		}
	}
	return nil
}

// Encode renders r as one JSON line.
func (r Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return append(data, '\n'), nil
}
