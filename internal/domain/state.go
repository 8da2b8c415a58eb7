package domain

import "strings"

// FlowID names a business intake process.
type FlowID string

const (
	FlowIdle    FlowID = "IDLE"
	FlowRepair  FlowID = "REPAIR"
	FlowOrg     FlowID = "ORG"
	FlowInquiry FlowID = "INQUIRY"
	FlowInstall FlowID = "INSTALL"
	FlowCCTV    FlowID = "CCTV"
	FlowStatus  FlowID = "CHECK_STATUS"
)

// StepID names a single step within a flow.
type StepID string

const (
	StepNone      StepID = ""
	StepType      StepID = "TYPE"
	StepEquipment StepID = "EQUIPMENT"
	StepDetail    StepID = "DETAIL"
	StepProduct   StepID = "PRODUCT"
	StepImage     StepID = "IMAGE"
)

// State is the tagged (flow, step) position of a conversation.
// The zero value is equivalent to Idle.
type State struct {
	Flow FlowID `json:"flow"`
	Step StepID `json:"step,omitempty"`
}

// Idle is the state with no flow in progress.
var Idle = State{Flow: FlowIdle}

// At returns the state for the given flow and step.
func At(flow FlowID, step StepID) State {
	return State{Flow: flow, Step: step}
}

// IsIdle reports whether no flow is in progress.
func (s State) IsIdle() bool {
	return s.Flow == "" || s.Flow == FlowIdle
}

// String renders the state token, e.g. "REPAIR.DETAIL" or "CHECK_STATUS".
func (s State) String() string {
	if s.IsIdle() {
		return string(FlowIdle)
	}
	if s.Step == StepNone {
		return string(s.Flow)
	}
	return string(s.Flow) + "." + string(s.Step)
}

// ParseState is the inverse of State.String. Empty input yields Idle.
func ParseState(token string) State {
	token = strings.TrimSpace(token)
	if token == "" || token == string(FlowIdle) {
		return Idle
	}
	flow, step, found := strings.Cut(token, ".")
	if !found {
		return State{Flow: FlowID(flow)}
	}
	return State{Flow: FlowID(flow), Step: StepID(step)}
}
