package service

import (
	set "github.com/deckarep/golang-set/v2"
	"github.com/m-manu/ftp-sidekick/action"
)

// Plan is the ordered list of actions a dry run would have performed
type Plan struct {
	actions []action.TreeAction
	seen    set.Set[string]
}

func NewPlan() *Plan {
	return &Plan{seen: set.NewThreadUnsafeSet[string]()}
}

// Add appends a, unless an equivalent action is already planned
func (p *Plan) Add(a action.TreeAction) bool {
	if !p.seen.Add(a.Uniqueness()) {
		return false
	}
	p.actions = append(p.actions, a)
	return true
}

func (p *Plan) Actions() []action.TreeAction {
	return p.actions
}

// Commands renders every planned action as an ftp client command
func (p *Plan) Commands() []string {
	commands := make([]string, 0, len(p.actions))
	for _, a := range p.actions {
		commands = append(commands, a.Command())
	}
	return commands
}

func (p *Plan) Len() int {
	return len(p.actions)
}
