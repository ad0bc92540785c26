package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/internal/survey"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(getEnv("GD_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	services, err := setupServices(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "qr":
		err = runQR(ctx, services, os.Args[2])
	case "session":
		err = runSession(ctx, services, os.Args[2])
	case "survey":
		err = runSurvey(ctx, services, os.Args[2])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <qr VENUE_ID | session SESSION_ID | survey SESSION_ID>\n", os.Args[0])
}

// runQR displays admission codes for a venue and keeps them fresh until
// interrupted.
func runQR(ctx context.Context, services *Services, venueID string) error {
	poll, err := services.QR.StartPolling(ctx, venueID)
	if err != nil {
		return err
	}
	defer poll.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-poll.Updates():
			if !ok {
				return nil
			}
			log.Info().
				Str("qr_id", snap.QR.ID).
				Int("usage", snap.QR.CurrentUsage).
				Int("remaining", snap.QR.Remaining()).
				Bool("regenerating", snap.Regenerating).
				Msg("qr status")
		}
	}
}

// runSession joins a session lobby, marks this participant ready, then
// follows the phase timers until the session completes.
func runSession(ctx context.Context, services *Services, sessionID string) error {
	lobby, err := services.newLobby(sessionID)
	if err != nil {
		return err
	}
	if err := lobby.Start(ctx); err != nil {
		return err
	}
	defer lobby.Close()

	if err := lobby.MarkReady(ctx); err != nil {
		log.Warn().Err(err).Msg("could not mark ready, waiting anyway")
	}

	select {
	case <-ctx.Done():
		return nil
	case <-lobby.Started():
	}
	lobby.Close()

	syncer, err := services.newSyncer()
	if err != nil {
		return err
	}
	if err := syncer.Initialize(ctx, sessionID); err != nil {
		return err
	}
	if err := syncer.Start(ctx); err != nil {
		return err
	}
	defer syncer.Close()

	// The feed blocks until the connection drops, so it runs alongside the
	// tick/resync loop; polling carries the session when it is down.
	if services.Feed != nil {
		go services.Feed.Attach(ctx, sessionID, syncer)
	}

	select {
	case <-ctx.Done():
	case <-syncer.Done():
		snap := syncer.Snapshot()
		log.Info().Str("phase", string(snap.Phase)).Msg("session completed")
	}
	return nil
}

// runSurvey walks the peer evaluation headlessly: without a UI there is
// nothing to rank with, so each question runs out its timer and is
// confirmed through the penalty path.
func runSurvey(ctx context.Context, services *Services, sessionID string) error {
	runner, err := survey.NewRunner(&survey.RunnerConfig{
		API:       services.Client,
		SessionID: sessionID,
		UserID:    services.Config.User.ID,
		Clock:     services.Clock,
	})
	if err != nil {
		return err
	}
	if err := runner.Begin(ctx); err != nil {
		return err
	}

	for !runner.Finished() {
		if ctx.Err() != nil {
			return nil
		}
		question, idx := runner.Current()
		log.Info().Int("question", idx+1).Str("text", question.Text).Msg("question open")

		for !runner.TimedOut(ctx) {
			select {
			case <-ctx.Done():
				return nil
			case <-services.Clock.After(time.Second):
			}
		}
		if runner.Ranking().Empty() {
			if err := runner.AcceptPenalty(ctx); err != nil {
				return err
			}
		}
		if err := runner.Confirm(ctx); err != nil {
			return err
		}
	}
	log.Info().Msg("survey completed")
	return nil
}
