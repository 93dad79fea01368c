package domain

// Action identifies a queued game action
type Action string

const (
	ActionForestFight Action = "forest_fight"
	ActionDuel        Action = "duel"
	ActionFlirt       Action = "flirt"
	ActionDrink       Action = "drink"
)

// ActionSubmission is a game action queued through the message bus.
// Target is only meaningful for duels.
type ActionSubmission struct {
	PlayerName string `json:"player_name"`
	Action     Action `json:"action"`
	Target     string `json:"target,omitempty"`
}

// Valid reports whether the submission can be dispatched
func (a ActionSubmission) Valid() bool {
	if a.PlayerName == "" {
		return false
	}
	switch a.Action {
	case ActionForestFight, ActionFlirt, ActionDrink:
		return true
	case ActionDuel:
		return a.Target != ""
	}
	return false
}
