package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/onboardingflow"
	"github.com/riskibarqy/finboard/internal/platform/logging"
)

// onboard walks one user through the onboarding steps from a terminal,
// saving progress through the finboard API.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.LoadWizard()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(logging.Options{Level: logging.LevelWarn, Writer: os.Stderr, Console: true})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	wizard, err := onboardingflow.Resume(ctx, onboardingflow.Config{
		UserID: cfg.UserID,
		Store: onboardingflow.NewAPIProgressStore(onboardingflow.APIStoreConfig{
			BaseURL: cfg.APIBaseURL,
			Token:   cfg.Token,
			Timeout: cfg.WriteTimeout,
		}),
		PoolSize:     cfg.PoolSize,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       logger,
		OnComplete: func(onboarding.State) {
			fmt.Println("onboarding finished, opening dashboard")
			close(finished)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer wizard.Close()

	printState(wizard.State())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-finished:
			return
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		command := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if command == "quit" || command == "exit" {
			return
		}

		kind, err := onboarding.ParseEventKind(command)
		if err != nil {
			fmt.Println("commands: complete, skip, back, quit")
			continue
		}
		state, err := wizard.Dispatch(ctx, onboarding.Event{Kind: kind})
		if errors.Is(err, onboarding.ErrFlowFinished) {
			return
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if !state.Completed {
			printState(state)
		}
	}
}

func printState(state onboarding.State) {
	if state.Completed {
		fmt.Println("onboarding already finished")
		return
	}
	fmt.Printf("step %d/%d: %s\n", int(state.Current), len(onboarding.Steps()), state.Current.Title())
}
