package suite

import "github.com/felixgeelhaar/regrade/internal/errors"

// Action is one tag from the closed step-action vocabulary. The executor
// dispatches on it with an exhaustive switch; ParseAction rejects anything
// outside the vocabulary so an unknown tag can never reach dispatch.
type Action string

const (
	ActionClientStart Action = "ClientStart"
	ActionServerStart Action = "ServerStart"
	ActionClientClose Action = "ClientClose"
	ActionServerClose Action = "ServerClose"
	ActionKillAll     Action = "KillAll"
	ActionRunClient   Action = "RunClient"
	ActionRunServer   Action = "RunServer"
	ActionWait        Action = "Wait"
	ActionHTTPRequest Action = "HttpRequest"
	ActionAssertText  Action = "AssertText"
	ActionCaptureFile Action = "CaptureFile"
	ActionCompareFile Action = "CompareFile"
	ActionCompareText Action = "CompareText"
	ActionCompareJSON Action = "CompareJson"
	ActionCompareCSV  Action = "CompareCsv"
	ActionTCPRelay    Action = "TcpRelay"
)

// actions is the closed vocabulary. Tags are case-sensitive.
var actions = map[Action]bool{
	ActionClientStart: true,
	ActionServerStart: true,
	ActionClientClose: true,
	ActionServerClose: true,
	ActionKillAll:     true,
	ActionRunClient:   true,
	ActionRunServer:   true,
	ActionWait:        true,
	ActionHTTPRequest: true,
	ActionAssertText:  true,
	ActionCaptureFile: true,
	ActionCompareFile: true,
	ActionCompareText: true,
	ActionCompareJSON: true,
	ActionCompareCSV:  true,
	ActionTCPRelay:    true,
}

// ParseAction validates a raw tag against the vocabulary.
func ParseAction(tag string) (Action, error) {
	a := Action(tag)
	if !actions[a] {
		return "", errors.Newf(errors.CodeUnsupportedAction, "unsupported action %q", tag)
	}
	return a, nil
}

// Valid reports whether the action is part of the vocabulary.
func (a Action) Valid() bool {
	return actions[a]
}

// IsCompare reports whether the action scores a comparison. Compare actions
// are worth one point; control actions carry no weight.
func (a Action) IsCompare() bool {
	switch a {
	case ActionCompareFile, ActionCompareText, ActionCompareJSON, ActionCompareCSV, ActionAssertText:
		return true
	default:
		return false
	}
}
