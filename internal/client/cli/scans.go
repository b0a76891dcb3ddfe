package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/scanvault/internal/client/client"
)

// clearValue entered at an update prompt clears the field.
const clearValue = "-"

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseIDList parses "1, 2,3" into ids.
func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func usage(args []string, n int, text string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", text)
	}
	return nil
}

// List prints the caller's scans; the arguments form a search term.
func (a *App) List(ctx context.Context, args []string) error {
	page, err := a.api.ListScans(ctx, client.ListOptions{Search: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	if len(page.Data) == 0 {
		fmt.Fprintln(a.out, "No scans found")
		return nil
	}
	printScanTable(a.out, page.Data)
	if total := page.Pagination.Total; total > int64(len(page.Data)) {
		fmt.Fprintf(a.out, "Showing %d of %d scans\n", len(page.Data), total)
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if err := usage(args, 1, "show <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	scan, err := a.api.GetScan(ctx, id)
	if err != nil {
		return err
	}
	printScan(a.out, scan)
	return nil
}

// Upload prompts for the metadata of a new scan and uploads the file.
func (a *App) Upload(ctx context.Context, args []string) error {
	if err := usage(args, 1, "upload <path>"); err != nil {
		return err
	}
	path := args[0]

	var meta client.ScanMeta
	prompts := []struct {
		text string
		dst  *string
	}{
		{fmt.Sprintf("Object name (blank for %q)", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))), &meta.ObjectName},
		{"Scan date (YYYY-MM-DD, optional)", &meta.ScanDate},
		{"Scanner model (optional)", &meta.ScannerModel},
		{"Resolution (optional)", &meta.Resolution},
		{"Accuracy (optional)", &meta.Accuracy},
		{"Created by (optional)", &meta.CreatedBy},
		{"Thumbnail image path (optional)", &meta.ThumbnailPath},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	notes, err := getMultiline(a.reader, "Notes (optional)", a.out)
	if err != nil {
		return err
	}
	meta.Notes = notes

	if meta.ProjectID, err = a.promptProject(); err != nil {
		return err
	}
	if meta.TagIDs, err = a.promptTags(); err != nil {
		return err
	}

	scan, err := a.api.UploadScan(ctx, path, meta)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded scan #%d %q (%s, %s)\n", scan.ID, scan.ObjectName, scan.FileFormat, formatSize(scan.FileSize))
	return nil
}

func (a *App) promptProject() (int64, error) {
	v, err := getSimpleText(a.reader, "Project id (optional, see 'projects')", a.out)
	if err != nil || v == "" {
		return 0, err
	}
	return parseID(v)
}

func (a *App) promptTags() ([]int64, error) {
	v, err := getSimpleText(a.reader, "Tag ids, comma separated (optional, see 'tags')", a.out)
	if err != nil {
		return nil, err
	}
	return parseIDList(v)
}

// Version uploads a new file version of a scan.
func (a *App) Version(ctx context.Context, args []string) error {
	if err := usage(args, 2, "version <id> <path>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	notes, err := getSimpleText(a.reader, "Change notes (optional)", a.out)
	if err != nil {
		return err
	}

	scan, err := a.api.UploadVersion(ctx, id, args[1], notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Scan #%d is now at v%d\n", scan.ID, scan.CurrentVersion)
	return nil
}

// Update prompts for each editable field. A blank answer keeps the value,
// "-" clears it.
func (a *App) Update(ctx context.Context, args []string) error {
	if err := usage(args, 1, "update <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	scan, err := a.api.GetScan(ctx, id)
	if err != nil {
		return err
	}

	var u client.ScanUpdate
	fields := []struct {
		label   string
		current *string
		dst     **string
	}{
		{"Object name", &scan.ObjectName, &u.ObjectName},
		{"Scan date", scan.ScanDate, &u.ScanDate},
		{"Scanner model", scan.ScannerModel, &u.ScannerModel},
		{"Resolution", scan.Resolution, &u.Resolution},
		{"Accuracy", scan.Accuracy, &u.Accuracy},
		{"Created by", scan.CreatedBy, &u.CreatedBy},
		{"Notes", scan.Notes, &u.Notes},
	}
	fmt.Fprintln(a.out, "Enter a new value, leave blank to keep, '-' to clear")
	for _, f := range fields {
		v, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", f.label, deref(f.current)), a.out)
		if err != nil {
			return err
		}
		switch v {
		case "":
		case clearValue:
			empty := ""
			*f.dst = &empty
		default:
			*f.dst = &v
		}
	}

	v, err := getSimpleText(a.reader, fmt.Sprintf("Project id [%s]", deref(scan.ProjectName)), a.out)
	if err != nil {
		return err
	}
	switch v {
	case "":
	case clearValue:
		var none int64
		u.ProjectID = &none
	default:
		pid, err := parseID(v)
		if err != nil {
			return err
		}
		u.ProjectID = &pid
	}

	v, err = getSimpleText(a.reader, fmt.Sprintf("Tag ids [%s]", strings.Join(scan.TagNames(), ",")), a.out)
	if err != nil {
		return err
	}
	switch v {
	case "":
	case clearValue:
		ids := []int64{}
		u.TagIDs = &ids
	default:
		ids, err := parseIDList(v)
		if err != nil {
			return err
		}
		u.TagIDs = &ids
	}

	updated, err := a.api.UpdateScan(ctx, id, u)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated scan #%d %q\n", updated.ID, updated.ObjectName)
	return nil
}

// Delete removes a scan after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if err := usage(args, 1, "delete <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ok, err := getConfirm(a.reader, fmt.Sprintf("Delete scan #%d with all versions?", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}

	if err := a.api.DeleteScan(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted scan #%d\n", id)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if err := usage(args, 2, "download <id> <dest>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	path, err := a.api.DownloadScan(ctx, id, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}
