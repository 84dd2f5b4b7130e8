package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"loanease/internal/client/acceptance"
	"loanease/internal/client/admin"
	"loanease/internal/client/apiclient"
	"loanease/internal/client/tracker"
	"loanease/internal/client/wizard"
	"loanease/internal/config"
)

// reported is an error whose notice was already written.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

type cli struct {
	cfg    *config.ClientConfig
	log    *zap.Logger
	api    *apiclient.Client
	out    io.Writer
	errOut io.Writer
}

// fail writes the notice and keeps the cause for the debug log.
func (c *cli) fail(notice string, err error) error {
	fmt.Fprintln(c.errOut, notice)
	c.log.Debug(notice, zap.Error(err))
	return reported{err}
}

func (c *cli) printErrors(errs map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(errs)) {
		fmt.Fprintf(c.errOut, "  %s: %s\n", k, errs[k])
	}
}

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// parseAssignments splits field=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: expected field=value, got %q", errUsage, a)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// apply walks the wizard with the given fields and submits on the last step.
func (c *cli) apply(ctx context.Context, args []string) error {
	fields, err := parseAssignments(args)
	if err != nil {
		return err
	}
	w := wizard.New(c.api)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err := w.Set(k, fields[k]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	for w.Step() < wizard.StepFinancial {
		step := w.Step()
		if !w.Continue() {
			fmt.Fprintf(c.errOut, "%s:\n", step)
			c.printErrors(w.Errors())
			return reported{wizard.ErrInvalid}
		}
	}
	id, err := w.Submit(ctx)
	if err != nil {
		c.printErrors(w.Errors())
		return c.fail(wizard.Notice(err), err)
	}
	fmt.Fprintf(c.out, "Application submitted: %s\n", id)
	return nil
}

// track searches by email; file arguments are uploaded against the first
// pending document request.
func (c *cli) track(ctx context.Context, args []string) error {
	fs := newFlags("track")
	email := fs.String("email", "", "applicant email")
	if err := parse(fs, args); err != nil {
		return err
	}
	t := tracker.New(c.api, c.log)
	res, err := t.Search(ctx, *email)
	if err != nil {
		return c.fail(tracker.Notice(err), err)
	}
	c.printResult(res)

	if fs.NArg() == 0 {
		return nil
	}
	target, ok := res.FirstUpload()
	if !ok {
		return c.fail("No document request is pending for this email", nil)
	}
	q := t.NewQueue(target)
	for _, path := range fs.Args() {
		f, err := tracker.LocalFile(path)
		if err != nil {
			return c.fail("Cannot read "+path, err)
		}
		for _, r := range q.Add(f) {
			fmt.Fprintf(c.errOut, "skipped %s: %v\n", r.File.Name, r.Reason)
		}
	}
	n := len(q.Pending())
	res, err = q.UploadAll(ctx)
	if err != nil {
		return c.fail(tracker.UploadNotice(err), err)
	}
	fmt.Fprintf(c.out, "Uploaded %d file(s)\n", n)
	if res != nil {
		c.printResult(res)
	}
	return nil
}

func (c *cli) printResult(res *tracker.Result) {
	if res.Empty {
		fmt.Fprintln(c.out, "No applications found for this email")
		return
	}
	tw := c.table()
	fmt.Fprintln(tw, "DATE\tSTATUS\tSUBJECT")
	for _, e := range res.Notifications {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"), admin.Label(e.DisplayStatus), e.Subject)
	}
	_ = tw.Flush()
	for _, u := range res.Uploads {
		fmt.Fprintf(c.out, "\nDocuments requested for %s: %s\n", u.ApplicationID, u.Message)
	}
	for _, o := range res.LoanOffers {
		fmt.Fprintf(c.out, "\nLoan of $%.2f approved for %s. Accept at %s%s\n", o.Amount, o.ApplicationID, c.cfg.PublicBaseURL, o.Link)
	}
}

func (c *cli) accept(ctx context.Context, args []string) error {
	fs := newFlags("accept")
	var form acceptance.Form
	token := fs.String("token", "", "approval token")
	fs.StringVar(&form.AccountNumber, "account", "", "bank account number")
	fs.StringVar(&form.RoutingNumber, "routing", "", "routing number")
	fs.StringVar(&form.CardNumber, "card", "", "card number")
	fs.StringVar(&form.CardCVV, "cvv", "", "card CVV")
	fs.StringVar(&form.CardExpiration, "exp", "", "card expiration MM/YY")
	fs.BoolVar(&form.AgreeToTerms, "agree", false, "agree to the loan terms")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("%w: accept: -token is required", errUsage)
	}
	form.CardNumber = acceptance.FormatCardNumber(form.CardNumber)
	form.CardExpiration = acceptance.FormatExpiration(form.CardExpiration)

	flow := acceptance.New(c.api, *token)
	offer, err := flow.Open(ctx)
	if err != nil {
		return c.fail(acceptance.Notice(err), err)
	}
	fmt.Fprintf(c.out, "Offer for %s %s: $%.2f\n", offer.FirstName, offer.LastName, offer.LoanAmountRequested)

	if err := flow.Submit(ctx, form); err != nil {
		c.printErrors(flow.Errors())
		return c.fail(acceptance.Notice(err), err)
	}
	fmt.Fprintln(c.out, "Loan accepted. Funds will be disbursed to the account on file.")
	return nil
}

func (c *cli) quote(ctx context.Context, args []string) error {
	fs := newFlags("quote")
	amount := fs.Float64("amount", 0, "loan amount")
	rate := fs.Float64("rate", 0, "annual interest rate, percent")
	term := fs.Int("term", 0, "term in months")
	if err := parse(fs, args); err != nil {
		return err
	}
	q, err := c.api.Quote(ctx, *amount, *rate, *term)
	if err != nil {
		return c.fail(apiclient.Notice(err, "Failed to calculate payment"), err)
	}
	tw := c.table()
	fmt.Fprintf(tw, "Monthly payment\t$%.2f\n", q.MonthlyPayment)
	fmt.Fprintf(tw, "Total payment\t$%.2f\n", q.TotalPayment)
	fmt.Fprintf(tw, "Total interest\t$%.2f\n", q.TotalInterest)
	return tw.Flush()
}

// cliNotices writes panel notices to the terminal.
type cliNotices struct{ out, errOut io.Writer }

func (n cliNotices) Success(msg string) { fmt.Fprintln(n.out, msg) }

func (n cliNotices) Error(msg string) { fmt.Fprintln(n.errOut, msg) }

// admin logs in for the duration of one subcommand.
func (c *cli) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: admin: missing subcommand", errUsage)
	}
	if c.cfg.AdminPassword == "" {
		return errors.New("LOANCTL_ADMIN_PASSWORD is not set")
	}
	session := admin.NewSession(c.api)
	if err := session.Login(ctx, c.cfg.AdminPassword); err != nil {
		return c.fail(admin.LoginNotice(err), err)
	}
	defer func() {
		if err := session.Logout(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn("logout failed", zap.Error(err))
		}
	}()
	p := admin.NewPanel(c.api, session,
		admin.WithLogger(c.log),
		admin.WithBaseURL(c.cfg.PublicBaseURL),
		admin.WithNotices(cliNotices{out: c.out, errOut: c.errOut}),
	)
	if err := p.Refresh(ctx); err != nil {
		return reported{err}
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return c.adminList(p, rest)
	case "show":
		return c.adminShow(p, rest)
	case "status":
		return c.adminStatus(ctx, p, rest)
	case "link":
		return c.adminLink(p, rest)
	case "banking":
		return c.adminBanking(ctx, p, rest)
	case "feed":
		return c.adminFeed(p)
	case "read":
		return c.adminRead(ctx, p, rest)
	case "download":
		return c.adminDownload(ctx, rest)
	default:
		return fmt.Errorf("%w: admin: unknown subcommand %q", errUsage, sub)
	}
}

func (c *cli) adminList(p *admin.Panel, args []string) error {
	fs := newFlags("admin list")
	query := fs.String("q", "", "search name, email or id")
	status := fs.String("status", admin.StatusAll, "status filter")
	page := fs.Int("page", 1, "page number")
	if err := parse(fs, args); err != nil {
		return err
	}
	if s := p.Stats(); s != nil {
		fmt.Fprintf(c.out, "Total %d  Pending %d  Under review %d  Docs required %d  Approved %d  Rejected %d  Unread %d\n\n",
			s.TotalApplications, s.Pending, s.UnderReview, s.DocumentsRequired, s.Approved, s.Rejected, p.UnreadCount())
	}
	res := admin.Page(p.Filter(*query, *status), *page)
	tw := c.table()
	fmt.Fprintln(tw, "ID\tAPPLICANT\tEMAIL\tAMOUNT\tSTATUS\tCREATED")
	for _, a := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%.2f\t%s\t%s\n",
			a.ID, a.FullName(), a.Email, a.LoanAmountRequested, admin.Label(a.Status), a.CreatedAt.Format("2006-01-02"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\npage %d of %d (%d applications)\n", res.Page, max(res.TotalPages, 1), res.Total)
	return nil
}

func idFlag(name string, args []string) (string, error) {
	fs := newFlags(name)
	id := fs.String("id", "", "application id")
	if err := parse(fs, args); err != nil {
		return "", err
	}
	if *id == "" {
		return "", fmt.Errorf("%w: %s: -id is required", errUsage, name)
	}
	return *id, nil
}

func (c *cli) selected(p *admin.Panel, id string) (apiclient.Application, error) {
	p.Open(id)
	a, ok := p.Selected()
	if !ok {
		return a, c.fail("Application not found", nil)
	}
	return a, nil
}

func (c *cli) adminShow(p *admin.Panel, args []string) error {
	id, err := idFlag("admin show", args)
	if err != nil {
		return err
	}
	a, err := c.selected(p, id)
	if err != nil {
		return err
	}
	defer p.Close()
	tw := c.table()
	fmt.Fprintf(tw, "ID\t%s\n", a.ID)
	fmt.Fprintf(tw, "Applicant\t%s\n", a.FullName())
	fmt.Fprintf(tw, "Email\t%s\n", a.Email)
	fmt.Fprintf(tw, "Phone\t%s\n", a.Phone)
	fmt.Fprintf(tw, "Date of birth\t%s\n", a.DateOfBirth)
	fmt.Fprintf(tw, "Address\t%s, %s, %s %s\n", a.StreetAddress, a.City, a.State, a.ZipCode)
	fmt.Fprintf(tw, "Employment\t%s\n", a.EmploymentStatus)
	fmt.Fprintf(tw, "Annual income\t$%.2f\n", a.AnnualIncome)
	fmt.Fprintf(tw, "Loan amount\t$%.2f\n", a.LoanAmountRequested)
	fmt.Fprintf(tw, "SSN\t***-**-%s\n", a.SSNLastFour)
	fmt.Fprintf(tw, "Status\t%s\n", admin.Label(a.Status))
	if a.DocumentRequestMessage != "" {
		fmt.Fprintf(tw, "Document request\t%s\n", a.DocumentRequestMessage)
	}
	fmt.Fprintf(tw, "Banking info\t%t\n", a.BankingInfoSubmitted)
	for _, d := range a.Documents {
		fmt.Fprintf(tw, "Document\t%s  %s (%d bytes)\n", d.ID, d.Filename, d.Size)
	}
	return tw.Flush()
}

func (c *cli) adminStatus(ctx context.Context, p *admin.Panel, args []string) error {
	fs := newFlags("admin status")
	id := fs.String("id", "", "application id")
	to := fs.String("to", "", "new status")
	msg := fs.String("message", "", "document request message")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" || *to == "" {
		return fmt.Errorf("%w: admin status: -id and -to are required", errUsage)
	}
	if err := p.UpdateStatus(ctx, *id, *to, *msg); err != nil {
		return reported{err}
	}
	return nil
}

func (c *cli) adminLink(p *admin.Panel, args []string) error {
	id, err := idFlag("admin link", args)
	if err != nil {
		return err
	}
	a, err := c.selected(p, id)
	if err != nil {
		return err
	}
	link, err := p.ApprovalLink(a)
	if err != nil {
		return c.fail("This application has no approval link", err)
	}
	fmt.Fprintln(c.out, link)
	return nil
}

func (c *cli) adminBanking(ctx context.Context, p *admin.Panel, args []string) error {
	id, err := idFlag("admin banking", args)
	if err != nil {
		return err
	}
	info, err := p.BankingInfo(ctx, id)
	if err != nil {
		return reported{err}
	}
	tw := c.table()
	fmt.Fprintf(tw, "Account\t****%s\n", info.AccountLastFour)
	fmt.Fprintf(tw, "Routing\t****%s\n", info.RoutingLastFour)
	fmt.Fprintf(tw, "Card\t****%s  exp %s\n", info.CardLastFour, info.CardExpiration)
	fmt.Fprintf(tw, "Accepted\t%s\n", info.AcceptedAt.Format("2006-01-02 15:04"))
	return tw.Flush()
}

func (c *cli) adminFeed(p *admin.Panel) error {
	tw := c.table()
	fmt.Fprintln(tw, "ID\tDATE\tREAD\tSUBJECT")
	for _, n := range p.Notifications() {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Read, n.Subject)
	}
	return tw.Flush()
}

func (c *cli) adminRead(ctx context.Context, p *admin.Panel, args []string) error {
	fs := newFlags("admin read")
	id := fs.String("id", "", "notification id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%w: admin read: -id is required", errUsage)
	}
	p.MarkRead(ctx, *id)
	fmt.Fprintf(c.out, "Unread: %d\n", p.UnreadCount())
	return nil
}

func (c *cli) adminDownload(ctx context.Context, args []string) error {
	fs := newFlags("admin download")
	appID := fs.String("app", "", "application id")
	docID := fs.String("doc", "", "document id")
	dest := fs.String("o", "", "output path (defaults to the stored filename)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *appID == "" || *docID == "" {
		return fmt.Errorf("%w: admin download: -app and -doc are required", errUsage)
	}
	tmp, err := os.CreateTemp(".", ".loanctl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	name, err := c.api.DownloadDocument(ctx, *appID, *docID, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return c.fail(apiclient.Notice(err, "Failed to download document"), err)
	}
	out := *dest
	if out == "" {
		out = filepath.Base(name)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved %s\n", out)
	return nil
}
