package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-fundboard/components/dashboard"
)

func (rt *runtime) admin(confirmer dashboard.Confirmer) (*dashboard.Admin, error) {
	repos, err := rt.repositories()
	if err != nil {
		return nil, err
	}
	return dashboard.NewAdmin(dashboard.AdminOptions{
		Backend:   repos,
		Notifier:  rt.notifier(),
		Confirmer: confirmer,
		Logger:    rt.logger,
		Telemetry: rt.telemetry(),
	})
}

// promptConfirmer asks on the terminal; only y or yes approves.
func (rt *runtime) promptConfirmer() dashboard.Confirmer {
	reader := bufio.NewReader(rt.in)
	return dashboard.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(rt.out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

type ListFlags struct {
	Search string `short:"s" help:"Free-text filter."`
}

func (f ListFlags) run(rt *runtime, kind dashboard.EntityKind) error {
	admin, err := rt.admin(nil)
	if err != nil {
		return err
	}
	defer admin.Close()
	result, err := admin.Search(rt.ctx, kind, f.Search)
	if err != nil {
		return err
	}
	currency, err := rt.currency()
	if err != nil {
		return err
	}
	return rt.print(result, func() table { return entityTable(result.Items, currency) })
}

func money(amountJPY float64, c dashboard.Currency) string {
	return dashboard.FormatCurrency(dashboard.ConvertToCurrency(amountJPY, c), c)
}

func entityTable(items any, c dashboard.Currency) table {
	switch rows := items.(type) {
	case []dashboard.Project:
		t := table{columns: []string{"id", "title", "status", "goalAmount", "totalAmount", "achievement", "supporters"}}
		for _, p := range rows {
			t.add(p.ID, p.Title, string(p.Status), money(p.GoalAmount, c), money(p.TotalAmount, c),
				fmt.Sprintf("%.0f%%", p.AchievementRate()), strconv.Itoa(p.SupporterCount))
		}
		return t
	case []dashboard.Video:
		t := table{columns: []string{"id", "title", "price", "purchases", "netProfit", "views", "visible"}}
		for _, v := range rows {
			t.add(v.ID, v.Title, money(v.Price, c), strconv.Itoa(v.PurchaseCount), money(v.NetProfit, c),
				strconv.Itoa(v.ViewCount), strconv.FormatBool(v.IsVisible))
		}
		return t
	case []dashboard.Payment:
		t := table{columns: []string{"id", "amount", "status", "purchaser", "stripePaymentId"}}
		for _, p := range rows {
			purchaser := "-"
			if p.User != nil {
				purchaser = p.User.Name
			}
			t.add(p.ID, money(p.Amount, c), string(p.Status), purchaser, orDash(p.StripePaymentID))
		}
		return t
	case []dashboard.Contact:
		t := table{columns: []string{"id", "name", "email", "purchaseAmount", "seller", "purchaser"}}
		for _, contact := range rows {
			t.add(contact.ID, contact.Name, contact.Email, money(contact.PurchaseAmount, c),
				strconv.FormatBool(contact.IsSeller), strconv.FormatBool(contact.IsPurchaser))
		}
		return t
	}
	return table{columns: []string{"items"}}
}

type projectsCmd struct {
	List    projectsListCmd    `cmd:"" default:"1" help:"List projects."`
	Status  projectsStatusCmd  `cmd:"" help:"Change a project status."`
	Publish projectsPublishCmd `cmd:"" help:"Publish a draft project."`
}

type projectsListCmd struct {
	ListFlags `embed:""`
}

func (c *projectsListCmd) Run(rt *runtime) error {
	return c.run(rt, dashboard.EntityProjects)
}

type projectsStatusCmd struct {
	ID     string `arg:"" help:"Project id."`
	Status string `arg:"" enum:"DRAFT,ACTIVE,COMPLETED,CANCELLED,draft,active,completed,cancelled" help:"New status."`
}

func (c *projectsStatusCmd) Run(rt *runtime) error {
	return setStatus(rt, dashboard.EntityProjects, c.ID, c.Status)
}

type projectsPublishCmd struct {
	ID string `arg:"" help:"Project id."`
}

func (c *projectsPublishCmd) Run(rt *runtime) error {
	admin, err := rt.admin(nil)
	if err != nil {
		return err
	}
	defer admin.Close()
	if err := admin.Publish(rt.ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "published %s\n", c.ID)
	return nil
}

type videosCmd struct {
	List       videosListCmd       `cmd:"" default:"1" help:"List videos."`
	Visibility videosVisibilityCmd `cmd:"" help:"Show or hide a video."`
}

type videosListCmd struct {
	ListFlags `embed:""`
}

func (c *videosListCmd) Run(rt *runtime) error {
	return c.run(rt, dashboard.EntityVideos)
}

type videosVisibilityCmd struct {
	ID         string `arg:"" help:"Video id."`
	Visibility string `arg:"" help:"visible or hidden."`
}

func (c *videosVisibilityCmd) Run(rt *runtime) error {
	return setStatus(rt, dashboard.EntityVideos, c.ID, c.Visibility)
}

type paymentsCmd struct {
	List paymentsListCmd `cmd:"" default:"1" help:"List payments."`
}

type paymentsListCmd struct {
	ListFlags `embed:""`
}

func (c *paymentsListCmd) Run(rt *runtime) error {
	return c.run(rt, dashboard.EntityPayments)
}

type contactsCmd struct {
	List contactsListCmd `cmd:"" default:"1" help:"List contacts. Administrators are never listed."`
}

type contactsListCmd struct {
	ListFlags `embed:""`
}

func (c *contactsListCmd) Run(rt *runtime) error {
	return c.run(rt, dashboard.EntityContacts)
}

func setStatus(rt *runtime, kind dashboard.EntityKind, id, value string) error {
	admin, err := rt.admin(nil)
	if err != nil {
		return err
	}
	defer admin.Close()
	if err := admin.SetStatus(rt.ctx, kind, id, value); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "updated %s %s\n", strings.TrimSuffix(string(kind), "s"), id)
	return nil
}

type deleteCmd struct {
	Kind string `arg:"" enum:"projects,videos" help:"projects or videos."`
	ID   string `arg:"" help:"Row id."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *deleteCmd) Run(rt *runtime) error {
	kind, err := dashboard.ParseEntityKind(c.Kind)
	if err != nil {
		return err
	}
	confirmer := rt.promptConfirmer()
	if c.Yes {
		confirmer = dashboard.AlwaysConfirm
	}
	admin, err := rt.admin(confirmer)
	if err != nil {
		return err
	}
	defer admin.Close()
	if err := admin.Delete(rt.ctx, kind, c.ID, nil); err != nil {
		if errors.Is(err, dashboard.ErrDeleteCancelled) {
			fmt.Fprintln(rt.out, "cancelled")
			return nil
		}
		return err
	}
	fmt.Fprintf(rt.out, "deleted %s\n", c.ID)
	return nil
}
