package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (a *App) Tags(ctx context.Context, _ []string) error {
	tags, err := a.api.ListTags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Fprintln(a.out, "No tags yet, create one with 'addtag'")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tSCANS")
	for _, t := range tags {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", t.ID, t.Name, t.Color, t.UsageCount)
	}
	return tw.Flush()
}

func (a *App) AddTag(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Tag name", a.out)
	if err != nil {
		return err
	}
	color, err := getSimpleText(a.reader, "Color as #rrggbb (optional)", a.out)
	if err != nil {
		return err
	}

	tag, err := a.api.CreateTag(ctx, name, color)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created tag #%d %s\n", tag.ID, tag.Name)
	return nil
}

func (a *App) Projects(ctx context.Context, _ []string) error {
	projects, err := a.api.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.out, "No projects yet, create one with 'addproject'")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCANS\tDESCRIPTION")
	for _, p := range projects {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, p.ScanCount, deref(p.Description))
	}
	return tw.Flush()
}

func (a *App) AddProject(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Project name", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := a.api.CreateProject(ctx, name, description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created project #%d %s\n", p.ID, p.Name)
	return nil
}
