package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

type recognizeOptions struct {
	asJSON     bool
	conf       float64
	imgsz      int
	verbose    bool
	top        int
	detections bool
}

func newRecognizeCmd(root *rootOptions, log *logrus.Logger) *cobra.Command {
	opts := &recognizeOptions{}

	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Recognize the food items in one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Zero means "use the config value", so an explicit --conf must be positive.
			if cmd.Flags().Changed("conf") && (opts.conf <= 0 || opts.conf > 1) {
				return fmt.Errorf("--conf must be in (0, 1], got %v", opts.conf)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			p, cleanup, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := p.RunFile(cmd.Context(), args[0], recognition.RunOptions{
				ConfidenceThreshold: opts.conf,
				InputSize:           opts.imgsz,
				Verbose:             opts.verbose,
			})
			if err != nil {
				return err
			}

			records := res.Records(opts.top)
			if opts.detections {
				records = res.DetectionRecords(opts.top)
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			return writeTable(cmd.OutOrStdout(), records)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.asJSON, "json", false, "print records as JSON")
	f.Float64Var(&opts.conf, "conf", 0, "detector confidence threshold (default from config)")
	f.IntVar(&opts.imgsz, "imgsz", 0, "detector input size (default from config)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log each pipeline step")
	f.IntVar(&opts.top, "top", recognition.DefaultRecordCandidates, "candidates per item (0 for all)")
	f.BoolVar(&opts.detections, "all-detections", false, "print every detection instead of the merged items")
	return cmd
}

func writeJSON(w io.Writer, records []recognition.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeTable(w io.Writer, records []recognition.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No food items detected.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tGROUP\tDETECTED AS\tBOX\tCANDIDATES")
	fmt.Fprintln(tw, "-----\t-----\t-----------\t---\t----------")
	for _, r := range records {
		group := "-"
		if r.Group != nil {
			group = *r.Group
		}

		cands := make([]string, len(r.Candidates))
		for i, c := range r.Candidates {
			cands[i] = fmt.Sprintf("%s %.4f", c.Label, c.Probability)
		}
		candText := strings.Join(cands, ", ")
		if candText == "" {
			candText = "-"
			if r.Error != "" {
				candText = "(" + r.Error + ")"
			}
		}

		fmt.Fprintf(tw, "%s\t%s\t%s %.4f\t%s\t%s\n",
			r.Label, group, r.DetectedClass, r.DetectedConfidence, r.Box, candText)
	}
	return tw.Flush()
}
