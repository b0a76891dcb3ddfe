package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/scanvault/internal/client/models"
)

// formatSize renders a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printScanTable(w io.Writer, scans []models.Scan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSIZE\tVER\tPROJECT\tTAGS")
	for _, s := range scans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\tv%d\t%s\t%s\n",
			s.ID, s.ObjectName, s.FileFormat, formatSize(s.FileSize), s.CurrentVersion,
			deref(s.ProjectName), strings.Join(s.TagNames(), ","))
	}
	_ = tw.Flush()
}

func printScan(w io.Writer, s *models.Scan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, v string) { fmt.Fprintf(tw, "%s:\t%s\n", k, v) }

	row("ID", strconv.FormatInt(s.ID, 10))
	row("Name", s.ObjectName)
	row("File", fmt.Sprintf("%s (%s, %s)", s.Filename, s.FileFormat, formatSize(s.FileSize)))
	row("Scan date", deref(s.ScanDate))
	row("Scanner", deref(s.ScannerModel))
	row("Resolution", deref(s.Resolution))
	row("Accuracy", deref(s.Accuracy))
	row("Project", deref(s.ProjectName))
	row("Tags", strings.Join(s.TagNames(), ", "))
	row("Created by", deref(s.CreatedBy))
	row("Notes", deref(s.Notes))
	row("Version", fmt.Sprintf("v%d", s.CurrentVersion))
	_ = tw.Flush()

	if len(s.Versions) == 0 {
		return
	}
	fmt.Fprintln(w, "History:")
	for _, v := range s.Versions {
		fmt.Fprintf(w, "  v%d  %s  %s  %s\n", v.VersionNumber, v.CreatedAt.Format("2006-01-02 15:04"),
			formatSize(v.FileSize), deref(v.ChangeNotes))
	}
}
