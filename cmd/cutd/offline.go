package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/cuts"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/detect"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/export"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/timeline"
	"github.com/adrianhumphrey111/bolt-new-hackathon-final-sub001/internal/transcript"
)

type detectOutput struct {
	Cuts          []cuts.Candidate `json:"cuts"`
	DetectedCount int              `json:"detectedCount"`
	RejectedCount int              `json:"rejectedCount"`
	FailedCalls   int              `json:"failedCalls"`
	Unparseable   int              `json:"unparseableResponses"`
	DurationMs    int64            `json:"processingTimeMs"`
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <transcript.json>",
		Short: "Run cut detection over a transcript file and print validated cuts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			types, _ := cmd.Flags().GetStringSlice("types")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			prompt, _ := cmd.Flags().GetString("prompt")

			categories, err := cuts.ParseCategories(types)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			tr, err := transcript.Parse(data)
			if err != nil {
				return err
			}

			detector, err := newDetector(e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("cut detection unavailable: %w", err)
			}

			res, err := detector.Detect(cmd.Context(), tr, detect.Request{
				VideoID:             filepath.Base(args[0]),
				Categories:          categories,
				CustomPrompt:        prompt,
				ConfidenceThreshold: threshold,
			})
			if err != nil {
				return err
			}

			valid, rejected := cuts.ValidateBatch(res.Candidates)
			return writeJSON(cmd.OutOrStdout(), detectOutput{
				Cuts:          valid,
				DetectedCount: len(res.Candidates),
				RejectedCount: rejected,
				FailedCalls:   res.FailedCalls,
				Unparseable:   res.Unparseable,
				DurationMs:    res.Duration.Milliseconds(),
			})
		},
	}

	all := make([]string, len(cuts.Categories))
	for i, c := range cuts.Categories {
		all[i] = string(c)
	}
	cmd.Flags().StringSlice("types", all, "Cut categories to detect")
	cmd.Flags().Float64("threshold", detect.DefaultConfidenceThreshold, "Minimum confidence to keep a candidate")
	cmd.Flags().String("prompt", "", "Extra instructions appended to every prompt")
	return cmd
}

func newTimelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline <cuts.json>",
		Short: "Reconstruct the clean timeline from a cuts file and optionally export it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetFloat64("duration")
			formatName, _ := cmd.Flags().GetString("format")
			title, _ := cmd.Flags().GetString("title")
			outDir, _ := cmd.Flags().GetString("out")
			allActive, _ := cmd.Flags().GetBool("all")
			fps, _ := cmd.Flags().GetFloat64("fps")

			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("read cuts: %w", err)
			}
			defer f.Close()

			active, err := readActiveCuts(f, allActive)
			if err != nil {
				return err
			}
			rec := timeline.Reconstruct(duration, active)

			if formatName == "" {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			out, err := export.Render(rec, format, title, fps)
			if err != nil {
				return err
			}

			if outDir == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), out.Content)
				return err
			}
			if err := export.ValidateOutputDir(outDir); err != nil {
				return err
			}
			path := filepath.Join(outDir, out.Filename)
			if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().Float64("duration", 0, "Video duration in seconds")
	cmd.Flags().String("format", "", "Export format: edl, csv or json (default prints the reconstruction)")
	cmd.Flags().String("title", "video", "Title used in the EDL header and output filename")
	cmd.Flags().String("out", "", "Directory to write the export into (default stdout)")
	cmd.Flags().Bool("all", false, "Treat every cut in the file as active")
	cmd.Flags().Float64("fps", 30, "EDL frame rate (29.97 and 59.94 write drop-frame timecode)")
	return cmd
}

// readActiveCuts decodes a JSON array of cuts, or a {"cuts": [...]} object
// as returned by the API, and keeps the active ones.
func readActiveCuts(r io.Reader, allActive bool) ([]*cuts.Cut, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var list []*cuts.Cut
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Cuts []*cuts.Cut `json:"cuts"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse cuts: %w", err)
		}
		list = wrapped.Cuts
	} else if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse cuts: %w", err)
	}

	active := make([]*cuts.Cut, 0, len(list))
	for i, c := range list {
		if c == nil {
			continue
		}
		if _, err := cuts.Validate(cuts.Candidate{
			SourceStart: c.SourceStart,
			SourceEnd:   c.SourceEnd,
			Type:        c.Type,
			Confidence:  c.Confidence,
		}); err != nil {
			return nil, fmt.Errorf("cut %d: %w", i, err)
		}
		if allActive || c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
