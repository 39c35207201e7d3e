package eval

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteReports writes the confusion matrix as delimited text and a
// human-readable classification report into outDir.
func WriteReports(res *Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeMatrixCSV(res, filepath.Join(outDir, "confusion_matrix.csv")); err != nil {
		return err
	}
	return writeReportText(res, filepath.Join(outDir, "evaluation_report.txt"))
}

// writeMatrixCSV writes rows = actual bucket, columns = predicted bucket,
// cell = count.
func writeMatrixCSV(res *Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create confusion matrix file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{""}, res.Labels...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, label := range res.Labels {
		row := make([]string, 0, len(res.Labels)+1)
		row = append(row, label)
		for _, n := range res.Matrix[i] {
			row = append(row, strconv.Itoa(n))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeReportText(res *Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	_, err = file.WriteString(res.Summary())
	return err
}

// Summary renders the confusion matrix and per-bucket metrics as text.
func (r *Result) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "EVALUATION RESULTS\n")
	fmt.Fprintf(&b, "==================\n\n")
	fmt.Fprintf(&b, "Rows evaluated: %d\n", r.Rows)
	fmt.Fprintf(&b, "Price buckets: %d (quantile edges: %v)\n\n", len(r.Labels), r.Edges)

	fmt.Fprintf(&b, "CONFUSION MATRIX (rows = actual, cols = predicted)\n")
	fmt.Fprintf(&b, "%8s", "")
	for _, label := range r.Labels {
		fmt.Fprintf(&b, "%8s", label)
	}
	fmt.Fprintf(&b, "\n")
	for i, label := range r.Labels {
		fmt.Fprintf(&b, "%8s", label)
		for _, n := range r.Matrix[i] {
			fmt.Fprintf(&b, "%8d", n)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "\nCLASSIFICATION REPORT\n")
	fmt.Fprintf(&b, "%8s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, ls := range r.PerLabel {
		fmt.Fprintf(&b, "%8s %10.2f %10.2f %10.2f %10d\n", ls.Label, ls.Precision, ls.Recall, ls.F1, ls.Support)
	}
	fmt.Fprintf(&b, "\nAccuracy: %.4f\n", r.Accuracy)

	return b.String()
}
