// Command play runs the puzzle in the terminal against an in-process
// game service. Arrow keys or WASD move, shift or an uppercase letter
// slides until the move stops, and the editor paints tiles with the mouse.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/slidepuzzle/game/levels"
	"github.com/wricardo/slidepuzzle/game/progress"
	"github.com/wricardo/slidepuzzle/game/service"
	"github.com/wricardo/slidepuzzle/game/session"
)

func main() {
	cmd := &cli.Command{
		Name:  "play",
		Usage: "play puzzle levels in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "levels-dir", Value: "levels", Usage: "directory containing level files", Sources: cli.EnvVars("LEVEL_DIR")},
			&cli.StringFlag{Name: "level", Usage: "level to start on (default level when empty)"},
			&cli.StringFlag{Name: "progress-file", Value: "progress.json", Usage: "where collected orbs and fragments are kept", Sources: cli.EnvVars("PROGRESS_FILE")},
			&cli.StringFlag{Name: "log-file", Usage: "write logs here; the screen owns the terminal"},
			&cli.BoolFlag{Name: "mute", Usage: "disable sound cues"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logrus.SetOutput(io.Discard)
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logrus.SetOutput(f)
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "play")

	levelManager, err := levels.NewManager(cmd.String("levels-dir"))
	if err != nil {
		return err
	}
	store, err := progress.NewJSONStore(cmd.String("progress-file"))
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewGameService(session.NewManager(session.WithProgress(store)), levelManager)
	info, err := svc.CreateSession(ctx, cmd.String("level"))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	sound := newCues(!cmd.Bool("mute"), log)
	defer sound.Close()

	return newPlayer(svc, info, screen, sound, log).run(ctx)
}
