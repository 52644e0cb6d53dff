package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/hupe1980/caremesh/core"
	"github.com/hupe1980/caremesh/logging"
	"github.com/hupe1980/caremesh/markdown"
	"github.com/hupe1980/caremesh/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one request through the pipeline and print the result",
	Long: `Analyze builds a request from local files, runs it and prints the result.
Intake data is read from a JSON file with the fields demographics, symptoms,
medications, allergies and vitals. Reports may be PDF, text or markdown files;
they are identified as report_1..report_n in the order given.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	intakePath, _ := cmd.Flags().GetString("intake")
	imagePath, _ := cmd.Flags().GetString("image")
	reportPaths, _ := cmd.Flags().GetStringArray("report")
	question, _ := cmd.Flags().GetString("question")
	output, _ := cmd.Flags().GetString("output")

	req, err := buildRequest(intakePath, imagePath, reportPaths, question)
	if err != nil {
		return err
	}

	a, err := wireApp(cmd.Context(), cfg, componentLogger("engine"))
	if err != nil {
		return err
	}
	defer a.Close()
	defer logging.StartTimer(logger, "analyze")()

	res, err := a.mesh.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), res, output)
}

// buildRequest assembles a request from CLI inputs. Empty paths are skipped.
func buildRequest(intakePath, imagePath string, reportPaths []string, question string) (core.Request, error) {
	req := core.Request{ImagePath: imagePath, Question: question}

	if intakePath != "" {
		data, err := os.ReadFile(intakePath)
		if err != nil {
			return core.Request{}, fmt.Errorf("%w: reading intake file: %w", core.ErrInput, err)
		}
		var intake core.IntakeData
		if err := json.Unmarshal(data, &intake); err != nil {
			return core.Request{}, fmt.Errorf("%w: parsing intake file: %w", core.ErrInput, err)
		}
		req.Intake = &intake
	}

	docs, err := report.LoadAll(reportPaths)
	if err != nil {
		return core.Request{}, err
	}
	for i := range docs {
		docs[i].ID = fmt.Sprintf("report_%d", i+1)
	}
	req.Reports = docs

	return req, nil
}

// writeResult prints res as json, yaml or styled text.
func writeResult(w io.Writer, res *core.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		var b strings.Builder
		fmt.Fprintf(&b, "Session: %s\n", res.SessionID)
		fmt.Fprintf(&b, "Steps:   %s\n", joinSteps(res.Plan))
		if res.ImagingFindings != nil {
			fmt.Fprintf(&b, "\nImaging (%s confidence):\n%s\n", res.ImagingFindings.Confidence, res.ImagingFindings.Observations)
		}
		for _, r := range res.UploadedReports {
			fmt.Fprintf(&b, "\nQ: %s\nA: %s\n", r.Question, r.Answer)
			if len(r.Sources) > 0 {
				fmt.Fprintf(&b, "Sources: %s\n", strings.Join(r.Sources, ", "))
			}
		}
		b.WriteString("\n")
		b.WriteString(markdown.ToTerminal(res.FinalOutput, 80))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	default:
		return fmt.Errorf("%w: unknown output format %q", core.ErrInput, format)
	}
}

func joinSteps(plan []core.Step) string {
	names := make([]string, len(plan))
	for i, s := range plan {
		names[i] = s.String()
	}
	return strings.Join(names, " -> ")
}

func init() {
	analyzeCmd.Flags().String("intake", "", "JSON file with patient intake data")
	analyzeCmd.Flags().String("image", "", "medical image (png, jpg, jpeg, bmp, tiff)")
	analyzeCmd.Flags().StringArray("report", nil, "report file (pdf, txt, md); repeatable")
	analyzeCmd.Flags().String("question", "", "question answered from the reports")
	analyzeCmd.Flags().StringP("output", "o", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(analyzeCmd)
}
