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

	"solace/internal/gen"
	"solace/internal/memory"
	"solace/internal/pipeline"
	"solace/internal/responder"
	"solace/internal/retrieval"
	"solace/internal/session"
	"solace/internal/store"
	"solace/internal/turn"
)

var chatUserID string

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("75")).
			Padding(0, 2)
	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)
	crisisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Starts an interactive session for a user. Type "quit" or "exit" to
end the session; ending consolidates the session into the user's
long-term record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatUserID, "user", "u", "", "user id (required)")
	_ = chatCmd.MarkFlagRequired("user")
}

func runChat(parent context.Context) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key: set GEMINI_API_KEY or llm.api_key")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := gen.NewGemini(ctx, gen.GeminiConfig{
		APIKey:        cfg.LLM.APIKey,
		FastModel:     cfg.LLM.FastModel,
		PowerfulModel: cfg.LLM.PowerfulModel,
		EmbedModel:    cfg.LLM.EmbedModel,
		Timeout:       cfg.LLM.Timeout.Std(),
	})
	if err != nil {
		return err
	}

	index := retrieval.NewIndex(client, db, cfg.Retrieval.MinScore, logger)
	rs := pipeline.Responders{
		Crisis:     responder.NewCrisis(),
		Factual:    responder.NewFactual(client, index, cfg.Retrieval.TopK),
		Dialogue:   responder.NewDialogue(client),
		Reflection: responder.NewReflection(client),
		Wellness:   responder.NewWellness(client),
	}
	mgr := session.NewManager(
		pipeline.New(client, rs, logger),
		memory.NewExtractor(client),
		db,
		logger,
	)

	sess, err := mgr.Start(chatUserID)
	if err != nil {
		return err
	}
	if sess.Degraded {
		fmt.Println(warnStyle.Render("warning: running without saved history; this session may not be remembered"))
	}

	fmt.Println(bannerStyle.Render(fmt.Sprintf("Solace — session for %s", sess.UserName())))
	fmt.Printf("%s %s\n", assistantStyle.Render(session.AssistantName+":"), sess.Greeting())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" {
			continue
		}
		if msg == "quit" || msg == "exit" {
			break
		}

		reply, terr := sess.Turn(ctx, msg)
		if terr != nil {
			logger.Warn("turn degraded", zap.Error(terr))
		}
		label := assistantStyle
		if sess.LastCrisisLevel().Rank() >= turn.ModerateRisk.Rank() {
			label = crisisStyle
		}
		fmt.Printf("\n%s %s\n\n", label.Render(session.AssistantName+":"), reply)
	}

	fmt.Println(assistantStyle.Render("Take care. Consolidating this session..."))
	if _, err := sess.End(ctx); err != nil {
		fmt.Println(warnStyle.Render("warning: this session could not be saved"))
		logger.Warn("session consolidation failed", zap.Error(err))
		return nil
	}
	fmt.Println("Session saved.")
	return nil
}
