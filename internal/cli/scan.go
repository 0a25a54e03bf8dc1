package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/face"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/scan"
	"github.com/spf13/cobra"
)

// newDetector is a test seam for loading the pigo cascade.
var newDetector = func(cascadePath string) (face.Detector, error) {
	if cascadePath == "" {
		return nil, errors.New("no face cascade configured (--cascade)")
	}
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	return face.NewPigoDetector(data)
}

type scanFlags struct {
	name   string
	phone  string
	refs   []string
	ranges []string
	decide string
	yes    bool
}

func newScanCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the library and calendar for a person and review the matches",
		Example: `  exeraser scan --name "Alex" --ref 2021/a.jpg --ref 2021/b.jpg --ref 2022/c.jpg
  exeraser scan --name "Alex" --phone "+1 555 0100" --ref a.jpg --ref b.jpg --ref c.jpg --range 2021-03-01..2022-08-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := f.profile()
			if err != nil {
				return err
			}
			decision, err := parseDecision(f.decide)
			if err != nil {
				return err
			}
			return withApp(cmd, true, func(ctx context.Context, a *App) error {
				return runScan(ctx, a, profile, decision, f.yes)
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "the person's name as it appears in calendar events")
	cmd.Flags().StringVar(&f.phone, "phone", "", "the person's phone number")
	cmd.Flags().StringSliceVar(&f.refs, "ref", nil, "library id of a reference photo (3 to 5)")
	cmd.Flags().StringArrayVar(&f.ranges, "range", nil, "relationship period as YYYY-MM-DD..YYYY-MM-DD (repeatable)")
	cmd.Flags().StringVar(&f.decide, "decide", "", "apply one decision to every match instead of asking: vault, delete or keep")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "apply decisions without confirmation")
	return cmd
}

func (f scanFlags) profile() (models.ExProfile, error) {
	p := models.ExProfile{
		Name:              f.name,
		PhoneNumber:       f.phone,
		ReferencePhotoIDs: f.refs,
	}
	for _, s := range f.ranges {
		r, err := parseRange(s)
		if err != nil {
			return p, err
		}
		p.DateRanges = append(p.DateRanges, r)
	}
	return p, p.Validate()
}

// parseRange reads "YYYY-MM-DD..YYYY-MM-DD" in local time. The end day is
// included in full.
func parseRange(s string) (models.DateRange, error) {
	from, to, ok := strings.Cut(s, "..")
	if !ok {
		return models.DateRange{}, fmt.Errorf("%w: range %q is not FROM..TO", common.ErrInvalidProfile, s)
	}
	start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(from), time.Local)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: range start: %w", common.ErrInvalidProfile, err)
	}
	end, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(to), time.Local)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: range end: %w", common.ErrInvalidProfile, err)
	}
	return models.DateRange{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Nanosecond)}, nil
}

func parseDecision(s string) (models.Decision, error) {
	d := models.Decision(strings.ToLower(s))
	if d != models.DecisionNone && !d.Valid() {
		return "", fmt.Errorf("unknown decision %q", s)
	}
	return d, nil
}

func runScan(ctx context.Context, a *App, profile models.ExProfile, decision models.Decision, yes bool) error {
	if err := a.unlock(ctx); err != nil {
		return err
	}

	detector, err := newDetector(a.cfg.CascadePath)
	if err != nil {
		return err
	}

	matcher := face.NewMatcher(a.media, detector, a.log)
	o := scan.New(a.media, a.events, matcher, scan.Options{
		Threshold:     a.cfg.FaceThreshold,
		BatchSize:     a.cfg.BatchSize,
		LookbackYears: a.cfg.CalendarLookbackYears,
	}, a.log)
	o.SetListener(progressPrinter(a))

	final := <-o.Start(ctx, profile)
	switch final.Status {
	case scan.StatusUnauthorized:
		return fmt.Errorf("%s; run `exeraser init` or check permissions on %s and %s",
			final.Message, a.cfg.LibraryDir, a.cfg.CalendarPath)
	case scan.StatusError:
		return errors.New(final.Message)
	}

	// review outlives an interrupted scan
	ctx = context.WithoutCancel(ctx)

	if final.Aborted {
		fmt.Fprintln(a.out, "Scan cancelled, showing the matches found so far.")
	}
	if len(final.Results) == 0 {
		fmt.Fprintln(a.out, "No matches found.")
		_, err := o.Complete(ctx, nil)
		return err
	}

	if err := triage(a, o, final.Results, decision); err != nil {
		return err
	}

	summary, err := o.Summary()
	if err != nil {
		return err
	}
	printSummary(a, summary)

	if summary.TotalVaulted+summary.TotalDeleted == 0 {
		_, err := o.Complete(ctx, nil)
		return err
	}
	if !yes {
		c, err := getChoice(a.in, "Apply these decisions? (y)es / (n)o", "yn", a.out)
		if err != nil {
			return err
		}
		if c == 'n' {
			fmt.Fprintln(a.out, "Nothing changed.")
			return nil
		}
	}

	if _, err := o.Complete(ctx, a.vault.ApplyDecisions); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Done. Items marked for deletion are erased after %d days; `exeraser vault cancel <id>` keeps them.\n",
		a.cfg.CoolingOffDays)
	return nil
}

func progressPrinter(a *App) scan.Listener {
	last := -1
	var phase models.ScanPhase
	return func(s scan.State) {
		if s.Status != scan.StatusScanning {
			return
		}
		pct := int(s.Progress * 100)
		if pct == last && s.Phase == phase {
			return
		}
		last, phase = pct, s.Phase
		fmt.Fprintf(a.out, "scanning %-8s %3d%%\n", s.Phase, pct)
	}
}

// triage records a decision for every result, asking the user unless one
// decision was given for all.
func triage(a *App, o *scan.Orchestrator, results []models.MatchCandidate, all models.Decision) error {
	for i, r := range results {
		d := all
		if d == models.DecisionNone {
			fmt.Fprintf(a.out, "[%d/%d] %s\n", i+1, len(results), describe(r))
			c, err := getChoice(a.in, "(v)ault, (d)elete, (k)eep, (s)kip, (q)uit reviewing", "vdksq", a.out)
			if err != nil {
				return err
			}
			switch c {
			case 'v':
				d = models.DecisionVault
			case 'd':
				d = models.DecisionDelete
			case 'k':
				d = models.DecisionKeep
			case 's':
				continue
			case 'q':
				return nil
			}
		}
		if err := o.SetDecision(r.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func describe(c models.MatchCandidate) string {
	where := ""
	if c.IsCloudAsset {
		where = " (cloud)"
	}
	return fmt.Sprintf("%s %s%s  %s  via %s  %.0f%%",
		c.Kind, c.AssetID, where, c.Timestamp.Local().Format(time.DateOnly), c.Source, c.Confidence*100)
}

func printSummary(a *App, s models.CleanupSummary) {
	undecided := s.TotalMatched - s.TotalVaulted - s.TotalDeleted - s.TotalKept
	fmt.Fprintf(a.out, "Matches: %d  vault: %d  delete: %d  keep: %d  undecided: %d\n",
		s.TotalMatched, s.TotalVaulted, s.TotalDeleted, s.TotalKept, undecided)
}
