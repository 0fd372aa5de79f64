// Package report renders run summaries for operators.
package report

import (
	"fmt"
	"strings"

	"claimsift/domain/evaluation"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
)

// RecallSpread summarises the cross-validated recall of a family's
// non-degenerate grid cells
type RecallSpread struct {
	Cells  int
	Mean   float64
	Median float64
	Max    float64
}

// Spread computes the recall spread; ok is false when every cell was degenerate
func Spread(fs evaluation.FamilySummary) (RecallSpread, bool) {
	var recalls stats.Float64Data
	for _, cell := range fs.Cells {
		if r, ok := cell.CV.Score(); ok {
			recalls = append(recalls, r)
		}
	}
	if len(recalls) == 0 {
		return RecallSpread{}, false
	}
	s := RecallSpread{Cells: len(recalls)}
	s.Mean, _ = recalls.Mean()
	s.Median, _ = recalls.Median()
	s.Max, _ = recalls.Max()
	return s, true
}

// Markdown renders a run as a markdown document
func Markdown(run *evaluation.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Model selection run %s\n\n", run.ID)
	if run.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`  \n", run.Source)
	}
	fmt.Fprintf(&b, "Started: %s  \n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Duration: %s\n\n", run.CompletedAt.Sub(run.StartedAt).Round(1e6))

	b.WriteString("## Dataset\n\n")
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Records | %d |\n", run.RecordCount)
	fmt.Fprintf(&b, "| Ages repaired | %d |\n", run.FixedAges)
	fmt.Fprintf(&b, "| Features | %d |\n", run.FeatureCount)
	fmt.Fprintf(&b, "| Age range | %g to %g |\n", run.AgeMin, run.AgeMax)
	fmt.Fprintf(&b, "| Encoding fit | %s |\n", run.FitMode)
	fmt.Fprintf(&b, "| Matrix hash | `%s` |\n", run.MatrixHash.Short())
	fmt.Fprintf(&b, "| Train / test | %d / %d (seed %d) |\n", run.TrainSize, run.TestSize, run.SplitSeed)
	fmt.Fprintf(&b, "| Fraud in train / test | %d / %d |\n", run.TrainPositives, run.TestPositives)
	fmt.Fprintf(&b, "| Cross-validation folds | %d |\n\n", run.Folds)

	if len(run.RemovedFeatures) > 0 {
		fmt.Fprintf(&b, "Removed constant features: %s\n\n", strings.Join(run.RemovedFeatures, ", "))
	}

	writeScreening(&b, run.Screening)
	for _, fs := range run.Families {
		writeFamily(&b, fs)
	}
	return b.String()
}

// ScreeningRows caps the feature screening table
const ScreeningRows = 10

func writeScreening(b *strings.Builder, screens []evaluation.FeatureScreen) {
	if len(screens) == 0 {
		return
	}
	b.WriteString("## Feature screening\n\n")
	b.WriteString("| Feature | Mutual information (bits) | Chi-square p | Cramer's V | Welch t |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, s := range screens {
		if i == ScreeningRows {
			break
		}
		chi, welch := "n/a", "n/a"
		v := "n/a"
		if r, ok := s.Result("chi_square"); ok {
			chi = fmt.Sprintf("%.3g", r.PValue)
			v = fmt.Sprintf("%.3f", r.EffectSize)
		}
		if r, ok := s.Result("welch_ttest"); ok {
			welch = fmt.Sprintf("%.2f", r.Statistic)
		}
		fmt.Fprintf(b, "| %s | %.4f | %s | %s | %s |\n", s.Feature, s.MutualInformation, chi, v, welch)
	}
	b.WriteString("\n")
}

func writeFamily(b *strings.Builder, fs evaluation.FamilySummary) {
	fmt.Fprintf(b, "## %s\n\n", fs.Family)

	if !fs.Found {
		b.WriteString("No configuration produced a usable cross-validated recall.\n\n")
	} else {
		fmt.Fprintf(b, "Selected: `%s` (cross-validation recall %.2f%%, accuracy %.2f%%)\n\n",
			fs.Best, fs.CVRecall*100, fs.CVAccuracy*100)
		if fs.Test != nil {
			m := fs.Test
			b.WriteString("| Accuracy | Precision | Recall | F1 | TP | TN | FP | FN |\n")
			b.WriteString("|---|---|---|---|---|---|---|---|\n")
			fmt.Fprintf(b, "| %.2f%% | %.2f%% | %.2f%% | %.2f%% | %d | %d | %d | %d |\n\n",
				m.Accuracy*100, m.Precision*100, m.Recall*100, m.F1*100,
				m.Confusion.TP, m.Confusion.TN, m.Confusion.FP, m.Confusion.FN)
		}
	}

	if spread, ok := Spread(fs); ok {
		fmt.Fprintf(b, "Recall over %d evaluated cells: mean %.2f%%, median %.2f%%, max %.2f%%\n\n",
			spread.Cells, spread.Mean*100, spread.Median*100, spread.Max*100)
	}

	if len(fs.Cells) == 0 {
		return
	}
	b.WriteString("| # | Configuration | CV recall | CV accuracy | Folds | Training accuracy |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, cell := range fs.Cells {
		recall, accuracy := "n/a", "n/a"
		if !cell.CV.Degenerate {
			recall = fmt.Sprintf("%.2f%%", cell.CV.MeanRecall*100)
			accuracy = fmt.Sprintf("%.2f%%", cell.CV.MeanAccuracy*100)
		}
		full := fmt.Sprintf("%.2f%%", cell.FullAccuracy*100)
		if cell.FullError != "" {
			full = "failed"
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s | %d/%d | %s |\n",
			cell.Index+1, cell.Config, recall, accuracy, cell.CV.Successful, len(cell.CV.Folds), full)
	}
	b.WriteString("\n")
}

// HTML renders the markdown report as an HTML fragment
func HTML(run *evaluation.RunSummary) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(run)), p, renderer)
}
