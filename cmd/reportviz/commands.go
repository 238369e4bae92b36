package main

import (
	"agentic_report/pkg/core/payload"
	"agentic_report/pkg/core/utils"
	"agentic_report/pkg/models"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	companyName    string
	answerFile     string
	maxViews       int
	ingestQuestion string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the agent a free-form question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var sectionCmd = &cobra.Command{
	Use:   "section [section-name]",
	Short: "Generate one report section",
	Long: `Generate one report section, for example:

  reportviz section 财务回顾 --company 招商银行 --year 2024`,
	Args: cobra.ExactArgs(1),
	RunE: runSection,
}

var visualizeCmd = &cobra.Command{
	Use:   "visualize [query]",
	Short: "Ask the agent to chart an existing answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVisualize,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [response.json]",
	Short: "Normalize a saved agent response without calling the agent",
	Long: `Normalize a saved agent response without calling the agent. The file may
hold a query or section response; "-" reads from stdin. Slightly malformed
JSON is repaired before decoding.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	sectionCmd.Flags().StringVar(&companyName, "company", "", "Company name")
	visualizeCmd.Flags().StringVar(&answerFile, "answer-file", "", "File holding the answer text to visualize (\"-\" for stdin)")
	visualizeCmd.Flags().IntVar(&maxViews, "max-views", 0, "Maximum number of charts to produce")
	ingestCmd.Flags().StringVar(&ingestQuestion, "question", "", "Question the cards are attributed to (default: file name)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runQuery(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	question := strings.Join(args, " ")
	logger.Info("querying agent", zap.String("question", question))
	if _, err := s.orchestrator.Ask(ctx, question); err != nil {
		_ = s.finish()
		return err
	}
	return s.finish()
}

func runSection(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	req := models.SectionRequest{SectionName: args[0], CompanyName: companyName}
	if year > 0 {
		req.Year = strconv.Itoa(year)
	}
	logger.Info("generating section",
		zap.String("section", req.SectionName),
		zap.String("company", req.CompanyName),
		zap.String("year", req.Year))
	if _, err := s.orchestrator.GenerateSection(ctx, req); err != nil {
		_ = s.finish()
		return err
	}
	return s.finish()
}

func runVisualize(cmd *cobra.Command, args []string) error {
	if answerFile == "" {
		return fmt.Errorf("--answer-file is required")
	}
	answer, err := readInput(answerFile)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	req := models.VisualizeRequest{Query: strings.Join(args, " "), Answer: string(answer), MaxViews: maxViews}
	if _, err := s.orchestrator.Visualize(ctx, req); err != nil {
		_ = s.finish()
		return err
	}
	return s.finish()
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	resp, err := decodeResponse(data)
	if err != nil {
		return fmt.Errorf("INGEST_DECODE_ERROR: %s: %w", args[0], err)
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	question := ingestQuestion
	if question == "" {
		question = args[0]
	}
	added := s.handler.Handle(question, resp)
	logger.Info("response ingested", zap.String("file", args[0]), zap.Int("cards_added", added))
	return s.finish()
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("READ_INPUT_ERROR: %w", err)
	}
	return data, nil
}

// decodeResponse accepts strict JSON first and falls back to the lenient
// decoder for fenced or slightly broken files.
func decodeResponse(data []byte) (*models.AgentResponse, error) {
	var resp models.AgentResponse
	if err := json.Unmarshal(data, &resp); err == nil {
		return &resp, nil
	}
	if !utils.LooksLikeJSON(string(data)) {
		return nil, fmt.Errorf("not a JSON object")
	}
	v, err := utils.SmartDecode(string(data))
	if err != nil {
		return nil, err
	}
	if _, ok := payload.AsMap(v); !ok {
		return nil, fmt.Errorf("expected a JSON object")
	}
	if err := json.Unmarshal([]byte(payload.Stringify(v)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
