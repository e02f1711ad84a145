package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/aacamara/cscx-mvp6-sub000/internal/app"
	"github.com/aacamara/cscx-mvp6-sub000/internal/config"
	"github.com/aacamara/cscx-mvp6-sub000/internal/messages"
	"github.com/aacamara/cscx-mvp6-sub000/internal/mock"
	"github.com/aacamara/cscx-mvp6-sub000/sdk/assistant"
)

func main() {
	cliApp := &cli.App{
		Name:  "cscx-assistant",
		Usage: "customer success assistant panel",
		Commands: []*cli.Command{
			panelCommand(),
			mockServerCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func panelCommand() *cli.Command {
	return &cli.Command{
		Name:  "panel",
		Usage: "open the assistant panel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file path"},
			&cli.StringFlag{Name: "backend", Usage: "assistant backend URL"},
			&cli.StringFlag{Name: "recorder", Usage: "conversation recorder URL"},
			&cli.StringFlag{Name: "phase", Usage: "customer lifecycle phase (defaults to the workspace phase)"},
			&cli.StringFlag{Name: "customer", Usage: "customer account name"},
			&cli.StringFlag{Name: "customer-id", Usage: "customer account ID"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging to stderr"},
		},
		Action: runPanel,
	}
}

func runPanel(c *cli.Context) error {
	if c.Bool("verbose") {
		assistant.SetLogger(assistant.NewLogger(assistant.LevelDebug, os.Stderr))
	} else {
		assistant.SetLogger(assistant.NewLoggerFromEnv())
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := c.String("backend"); v != "" {
		cfg.BackendURL = v
	}
	if v := c.String("recorder"); v != "" {
		cfg.RecorderURL = v
	}

	phase := c.String("phase")
	if phase == "" {
		phase = cfg.Workspace.Phase
	}

	client := assistant.NewClient(cfg.BackendURL)
	recorder := assistant.NewRecorder(cfg.EffectiveRecorderURL())

	shared := &app.SharedState{}
	conv := assistant.NewConversation(client, recorder, assistant.SituationalContext{
		Phase:       phase,
		SubjectName: c.String("customer"),
		SubjectID:   c.String("customer-id"),
	},
		assistant.WithAgentLabel(cfg.AgentLabel),
		assistant.WithOnChange(func() {
			if p := shared.GetProgram(); p != nil {
				p.Send(messages.TranscriptChangedMsg{})
			}
		}),
	)

	p := tea.NewProgram(app.New(conv, shared), tea.WithAltScreen())
	shared.SetProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run panel: %w", err)
	}
	recorder.Flush()
	return nil
}

func mockServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "run a local assistant backend with canned responses",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "port to listen on"},
		},
		Action: func(c *cli.Context) error {
			return mock.NewServer(c.Int("port")).Start()
		},
	}
}
