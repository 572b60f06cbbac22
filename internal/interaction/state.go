// Package interaction drives the two calendar gestures: moving a booking to
// another room or date (drag and drop) and changing its length (resize).
// Exactly one gesture per session can be in flight; the controller is an
// explicit state machine and every transition goes through one mutex.
package interaction

import (
	"errors"
	"strings"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// State of the gesture controller.
type State int

const (
	Idle State = iota
	Dragging
	DropPending
	Resizing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case DropPending:
		return "drop_pending"
	case Resizing:
		return "resizing"
	case Committing:
		return "committing"
	}
	return "unknown"
}

// MarshalText lets the state travel as its name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Edge is the side of a booking bar being resized.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

func (e Edge) Valid() bool { return e == EdgeStart || e == EdgeEnd }

// PricingMode decides what happens to total_amount after a resize.  In
// client mode the console sends nights * base_price; in server mode it
// leaves the amount out so the PMS reprices with its own rate plans.
type PricingMode string

const (
	PricingClient PricingMode = "client"
	PricingServer PricingMode = "server"
)

// ParsePricingMode falls back to client mode for unknown values.
func ParsePricingMode(s string) PricingMode {
	if strings.EqualFold(strings.TrimSpace(s), string(PricingServer)) {
		return PricingServer
	}
	return PricingClient
}

// Room move reason codes.
const (
	ReasonGuestRequest = "guest_request"
	ReasonMaintenance  = "maintenance"
	ReasonUpgrade      = "upgrade"
	ReasonDowngrade    = "downgrade"
	ReasonOverbooking  = "overbooking"
	ReasonOther        = "other"
)

var reasonCodes = map[string]bool{
	ReasonGuestRequest: true,
	ReasonMaintenance:  true,
	ReasonUpgrade:      true,
	ReasonDowngrade:    true,
	ReasonOverbooking:  true,
	ReasonOther:        true,
}

// Reason explains a room move.  Either a known code or free text is
// required; the code "other" needs text as well.
type Reason struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

func (r Reason) Validate() error {
	code := strings.TrimSpace(r.Code)
	text := strings.TrimSpace(r.Text)
	switch {
	case code == "" && text == "":
		return model.ValidationError("please give a reason for moving this booking")
	case code != "" && !reasonCodes[code]:
		return model.ValidationError("unknown move reason " + code)
	case code == ReasonOther && text == "":
		return model.ValidationError("please describe the reason for moving this booking")
	}
	return nil
}

// Errors returned when a call does not fit the current state.
var (
	ErrBusy       = errors.New("another gesture is in progress")
	ErrNoGesture  = errors.New("no matching gesture in progress")
	ErrBadRequest = errors.New("invalid gesture request")
)
