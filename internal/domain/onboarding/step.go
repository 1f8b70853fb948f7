package onboarding

import (
	"errors"
	"fmt"
	"strings"
)

// Step identifies one screen of the onboarding flow, 1-based.
type Step int

const (
	StepWelcome Step = iota + 1
	StepGoals
	StepTaxID
	StepBankConnection
	// StepFinished is persisted once the last step is done.
	StepFinished
)

// LastStep is the final interactive step.
const LastStep = StepBankConnection

var (
	ErrInvalidStep  = errors.New("invalid onboarding step")
	ErrFlowFinished = errors.New("onboarding flow already finished")
	ErrUnknownEvent = errors.New("unknown onboarding event")
)

var stepNames = map[Step]string{
	StepWelcome:        "welcome",
	StepGoals:          "goals",
	StepTaxID:          "tax_id",
	StepBankConnection: "bank_connection",
	StepFinished:       "finished",
}

var stepTitles = map[Step]string{
	StepWelcome:        "Bem-vindo",
	StepGoals:          "Objetivos",
	StepTaxID:          "CPF",
	StepBankConnection: "Conectar Conta",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Title is the label shown in the wizard header.
func (s Step) Title() string {
	return stepTitles[s]
}

func (s Step) Valid() bool {
	return s >= StepWelcome && s <= LastStep
}

// Persistable reports whether s may be stored as currentStep.
func (s Step) Persistable() bool {
	return s >= StepWelcome && s <= StepFinished
}

// Steps returns the interactive steps in order.
func Steps() []Step {
	return []Step{StepWelcome, StepGoals, StepTaxID, StepBankConnection}
}

type EventKind string

const (
	EventComplete EventKind = "complete"
	EventSkip     EventKind = "skip"
	EventBack     EventKind = "back"
)

func ParseEventKind(raw string) (EventKind, error) {
	switch kind := EventKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case EventComplete, EventSkip, EventBack:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, raw)
	}
}

// Event is one user action on the wizard. Step is the step the action was
// taken on; zero means the current step.
type Event struct {
	Kind EventKind
	Step Step
}

type State struct {
	Current   Step
	Completed bool
}

func InitialState() State {
	return State{Current: StepWelcome}
}

// Terminal reports whether no further transitions are accepted.
func (s State) Terminal() bool {
	return s.Completed
}

// Transition computes the next state. It has no side effects.
func Transition(state State, event Event) (State, error) {
	if state.Terminal() {
		return state, ErrFlowFinished
	}

	current := state.Current
	if current == 0 {
		current = StepWelcome
	}
	if !current.Valid() {
		return state, fmt.Errorf("%w: current step %d", ErrInvalidStep, int(current))
	}

	from := event.Step
	if from == 0 {
		from = current
	}
	if !from.Valid() {
		return state, fmt.Errorf("%w: %d", ErrInvalidStep, int(from))
	}

	switch event.Kind {
	case EventComplete, EventSkip:
		if from == LastStep {
			return State{Current: StepFinished, Completed: true}, nil
		}
		return State{Current: from + 1}, nil
	case EventBack:
		if from <= StepWelcome {
			return State{Current: StepWelcome}, nil
		}
		return State{Current: from - 1}, nil
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Kind)
	}
}
