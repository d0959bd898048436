package main

import (
	"fmt"

	"github.com/goliatone/go-fundboard/components/dashboard"
)

type bannerCmd struct {
	List   bannerListCmd   `cmd:"" default:"1" help:"Show the banner and the pending selection."`
	Toggle bannerToggleCmd `cmd:"" help:"Toggle projects in order, then save the banner."`
	Save   bannerSaveCmd   `cmd:"" help:"Replace the banner with the given projects, in order."`
}

func (rt *runtime) bannerSelector() (*dashboard.BannerSelector, error) {
	repos, err := rt.repositories()
	if err != nil {
		return nil, err
	}
	return dashboard.NewBannerSelector(dashboard.BannerOptions{
		Repository: repos,
		Catalog:    repos,
		Notifier:   rt.notifier(),
		Logger:     rt.logger,
		Telemetry:  rt.telemetry(),
	})
}

type bannerListCmd struct {
	All bool `help:"Also list the project catalog."`
}

func (c *bannerListCmd) Run(rt *runtime) error {
	selector, err := rt.bannerSelector()
	if err != nil {
		return err
	}
	if err := selector.Load(rt.ctx); err != nil {
		return err
	}
	return printBanner(rt, selector.State(), c.All)
}

type bannerToggleCmd struct {
	IDs    []string `arg:"" name:"project-id" help:"Project ids, applied in order."`
	DryRun bool     `help:"Show the resulting selection without saving."`
}

func (c *bannerToggleCmd) Run(rt *runtime) error {
	selector, err := rt.bannerSelector()
	if err != nil {
		return err
	}
	if err := selector.Load(rt.ctx); err != nil {
		return err
	}
	for _, id := range c.IDs {
		if _, err := selector.Toggle(rt.ctx, id); err != nil {
			return fmt.Errorf("fundctl: toggle %s: %w", id, err)
		}
	}
	if !c.DryRun {
		if err := selector.Save(rt.ctx); err != nil {
			return err
		}
	}
	return printBanner(rt, selector.State(), false)
}

type bannerSaveCmd struct {
	IDs []string `arg:"" optional:"" name:"project-id" help:"Project ids in display order. Empty clears the banner."`
}

func (c *bannerSaveCmd) Run(rt *runtime) error {
	selector, err := rt.bannerSelector()
	if err != nil {
		return err
	}
	if err := selector.Load(rt.ctx); err != nil {
		return err
	}
	for _, id := range selector.Selected() {
		if _, err := selector.Toggle(rt.ctx, id); err != nil {
			return err
		}
	}
	for _, id := range dashboard.BannerSelection(c.IDs) {
		if _, err := selector.Toggle(rt.ctx, id); err != nil {
			return fmt.Errorf("fundctl: select %s: %w", id, err)
		}
	}
	if err := selector.Save(rt.ctx); err != nil {
		return err
	}
	return printBanner(rt, selector.State(), false)
}

func printBanner(rt *runtime, state dashboard.BannerState, all bool) error {
	return rt.print(state, func() table {
		selected := make(map[string]int, len(state.Selected))
		for i, id := range state.Selected {
			selected[id] = i + 1
		}
		titles := make(map[string]string, len(state.Catalog))
		for _, p := range state.Catalog {
			titles[p.ID] = p.Title
		}
		t := table{columns: []string{"position", "id", "title"}}
		for i, id := range state.Selected {
			t.add(fmt.Sprint(i+1), id, titles[id])
		}
		if all {
			for _, p := range state.Catalog {
				if selected[p.ID] == 0 {
					t.add("-", p.ID, p.Title)
				}
			}
		}
		if len(t.rows) == 0 {
			t.add("-", "-", "-")
		}
		return t
	})
}
