package onboarding

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
		want  State
	}{
		{name: "complete welcome", state: InitialState(), event: Event{Kind: EventComplete}, want: State{Current: StepGoals}},
		{name: "skip goals", state: State{Current: StepGoals}, event: Event{Kind: EventSkip}, want: State{Current: StepTaxID}},
		{name: "complete uses event step", state: State{Current: StepGoals}, event: Event{Kind: EventComplete, Step: StepTaxID}, want: State{Current: StepBankConnection}},
		{name: "complete last step finishes", state: State{Current: StepBankConnection}, event: Event{Kind: EventComplete}, want: State{Current: StepFinished, Completed: true}},
		{name: "skip last step finishes", state: State{Current: StepBankConnection}, event: Event{Kind: EventSkip}, want: State{Current: StepFinished, Completed: true}},
		{name: "back from tax id", state: State{Current: StepTaxID}, event: Event{Kind: EventBack}, want: State{Current: StepGoals}},
		{name: "back clamps at welcome", state: InitialState(), event: Event{Kind: EventBack}, want: State{Current: StepWelcome}},
		{name: "zero state starts at welcome", state: State{}, event: Event{Kind: EventComplete}, want: State{Current: StepGoals}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.state, tt.event)
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Transition(%+v, %+v)=%+v want=%+v", tt.state, tt.event, got, tt.want)
			}
		})
	}
}

func TestTransition_Rejections(t *testing.T) {
	if _, err := Transition(State{Current: StepFinished, Completed: true}, Event{Kind: EventBack}); !errors.Is(err, ErrFlowFinished) {
		t.Fatalf("expected ErrFlowFinished, got %v", err)
	}
	if _, err := Transition(InitialState(), Event{Kind: EventComplete, Step: Step(9)}); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
	if _, err := Transition(InitialState(), Event{Kind: EventKind("jump")}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestTransition_FullForwardRun(t *testing.T) {
	state := InitialState()
	for _, step := range Steps() {
		if state.Current != step {
			t.Fatalf("expected to be on %s, got %s", step, state.Current)
		}
		next, err := Transition(state, Event{Kind: EventComplete})
		if err != nil {
			t.Fatalf("complete %s: %v", step, err)
		}
		state = next
	}
	if !state.Completed || state.Current != StepFinished {
		t.Fatalf("expected finished state, got %+v", state)
	}
}

func TestParseEventKind(t *testing.T) {
	kind, err := ParseEventKind(" Skip ")
	if err != nil || kind != EventSkip {
		t.Fatalf("unexpected parse result kind=%q err=%v", kind, err)
	}
	if _, err := ParseEventKind("restart"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestPatchApplyTo_ClearConnectionDate(t *testing.T) {
	connected := true
	record := Patch{OpenFinanceConnected: &connected}.ApplyTo(NewRecord("u1"))
	if !record.OpenFinanceConnected {
		t.Fatalf("expected connected flag set")
	}

	cleared := Patch{ClearConnectionDate: true}.ApplyTo(record)
	if cleared.ConnectionDate != nil {
		t.Fatalf("expected connection date cleared")
	}
	if cleared.CurrentStep != StepWelcome {
		t.Fatalf("expected untouched step, got %s", cleared.CurrentStep)
	}
}
