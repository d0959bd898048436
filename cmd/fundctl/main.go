package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Config string `type:"path" help:"Config file (defaults to <user config dir>/fundboard/config.yaml)."`
	APIURL string `name:"api-url" help:"API base URL. Overrides NEXT_PUBLIC_API_URL and the config file."`
	Debug  bool   `help:"Enable debug logging."`
	Output string `short:"o" enum:"table,json,yaml" default:"table" help:"Output format (table, json, yaml)."`

	Login       loginCmd       `cmd:"" help:"Sign in with email and password and keep the session locally."`
	Logout      logoutCmd      `cmd:"" help:"Forget the local session."`
	Whoami      whoamiCmd      `cmd:"" help:"Show the signed-in account."`
	OAuthURL    oauthURLCmd    `cmd:"" name:"oauth-url" help:"Print the OAuth sign-in URL for a provider."`
	Stats       statsCmd       `cmd:"" help:"Show dashboard stats with period-over-period comparison."`
	Banner      bannerCmd      `cmd:"" help:"Inspect or change the featured banner projects."`
	Projects    projectsCmd    `cmd:"" help:"Manage crowdfunding projects."`
	Videos      videosCmd      `cmd:"" help:"Manage video listings."`
	Payments    paymentsCmd    `cmd:"" help:"Inspect payments."`
	Contacts    contactsCmd    `cmd:"" help:"Inspect marketplace accounts."`
	Delete      deleteCmd      `cmd:"" help:"Delete a project or video."`
	Checkout    checkoutCmd    `cmd:"" help:"Checkout session tools."`
	Upload      uploadCmd      `cmd:"" help:"Upload media files."`
	Serve       serveCmd       `cmd:"" help:"Serve the back-office HTTP API and notification stream."`
	MockBackend mockBackendCmd `cmd:"" name:"mock-backend" help:"Serve an in-memory marketplace API for local development."`
}

func main() {
	var root cli
	kctx := kong.Parse(&root,
		kong.Name("fundctl"),
		kong.Description("Back-office toolkit for the crowdfunding and video marketplace."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, root, os.Stdin, os.Stdout)
	kctx.FatalIfErrorf(err)
	err = kctx.Run(rt)
	rt.Close()
	kctx.FatalIfErrorf(err)
}
