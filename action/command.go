package action

import "fmt"

type Verb string

const VERB_FILL Verb = "fill"
const VERB_CLICK Verb = "click"
const VERB_SELECT Verb = "select"

// Command is the page-level instruction an Action turns into.
type Command struct {
	Verb     Verb   `json:"verb"`
	Selector string `json:"selector"`
	Value    string `json:"value,omitempty"`
	Match    string `json:"match,omitempty"`
}

func ToCommand(act Action, el Element) (Command, error) {
	switch a := act.(type) {
	case FillText:
		return Command{Verb: VERB_FILL, Selector: el.Selector, Value: a.Text}, nil
	case ClickElement:
		return Command{Verb: VERB_CLICK, Selector: el.Selector}, nil
	case SelectProject:
		return Command{Verb: VERB_SELECT, Selector: el.Selector, Value: a.Project, Match: "project"}, nil
	case SelectChat:
		return Command{Verb: VERB_SELECT, Selector: el.Selector, Value: a.Chat, Match: "chat"}, nil
	default:
		return Command{}, fmt.Errorf("no command for action %T", act)
	}
}
