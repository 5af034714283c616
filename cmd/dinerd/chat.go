package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dinerd/internal/catalog"
	"dinerd/internal/classify"
	"dinerd/internal/dialog"
	"dinerd/internal/inference"
	"dinerd/internal/store"
)

var (
	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive restaurant recommendation conversation",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Dataset.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Dataset.CSVPath != "" {
		n, err := st.ImportCSV(cfg.Dataset.CSVPath)
		if err != nil {
			return fmt.Errorf("failed to ingest dataset: %w", err)
		}
		logger.Info("dataset ingested",
			zap.String("csv", cfg.Dataset.CSVPath),
			zap.Int("restaurants", n))
	}

	cat, err := catalog.Build(st)
	if err != nil {
		return fmt.Errorf("failed to build value catalog: %w", err)
	}

	rules, closeRules, err := openRules()
	if err != nil {
		return err
	}
	defer closeRules()

	classifier, err := buildClassifier(ctx)
	if err != nil {
		return err
	}

	session := dialog.NewSession(cat, dialog.SessionConfig{
		AllowFeedback:         cfg.Dialog.AllowFeedback,
		AllowPreferenceChange: cfg.Dialog.AllowPreferenceChange,
		ResponseDelay:         cfg.Dialog.ResponseDelay,
	})
	machine := dialog.NewMachine(classifier, st, rules, session, logger)
	logger.Info("conversation started", zap.String("session", session.ID))

	state, greeting := machine.Start()
	say(greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for !state.Terminal() {
		fmt.Print(promptStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}

		next, reply, err := machine.Step(ctx, state, utterance)
		if err != nil {
			return err
		}
		state = next

		session.Pace(ctx)
		if ctx.Err() != nil {
			break
		}
		say(reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Println(mutedStyle.Render("Session " + session.ID + " ended."))
	return nil
}

func say(reply string) {
	fmt.Println(agentStyle.Render("dinerd:"), replyStyle.Render(reply))
}

// openRules loads the requirement rule base, hot-reloading when configured.
func openRules() (dialog.RuleSource, func(), error) {
	if cfg.Rules.HotReload {
		w, err := inference.NewWatcher(cfg.Rules.Path, logger.Named("rules"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to watch rule file: %w", err)
		}
		return w, func() { _ = w.Close() }, nil
	}
	rs, err := inference.Load(cfg.Rules.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rule file: %w", err)
	}
	return dialog.StaticRules(rs), func() {}, nil
}

func buildClassifier(ctx context.Context) (classify.Classifier, error) {
	switch cfg.Classifier.Provider {
	case "genai":
		return classify.NewGenAIClassifier(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model)
	default:
		return classify.NewKeywordClassifier(), nil
	}
}
