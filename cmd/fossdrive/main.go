// Command fossdrive drives a FOSSology server's web console from the
// command line: uploading files, running scan agents, and retrieving
// generated reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/fossdrive/fossdrive/internal/config"
	"github.com/fossdrive/fossdrive/internal/fossology"
	"github.com/fossdrive/fossdrive/internal/logging"
	"github.com/fossdrive/fossdrive/internal/transport"
	"github.com/fossdrive/fossdrive/internal/version"
)

const usage = `fossdrive %s - drive a FOSSology server through its web console

Usage:
  fossdrive [--config PATH] <command> [flags]

Commands:
  upload     upload a file into a folder
  scan       run the monk and nomos license scanners on an upload
  copyright  run the copyright scanner on an upload
  report     generate and download an SPDX tag-value report
  bulk       run a bulk text match against an upload item
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("fossdrive", pflag.ContinueOnError)
	configPath := global.String("config", defaultConfigPath(), "path to config file")
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprintf(os.Stderr, usage, version.Version) }
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return fmt.Errorf("no command given")
	}
	command, cmdArgs := rest[0], rest[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closer := logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	if closer != nil {
		defer closer.Close() //nolint:errcheck
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := login(ctx, cfg, logger)
	if err != nil {
		return err
	}

	switch command {
	case "upload":
		return cmdUpload(ctx, client, cmdArgs)
	case "scan":
		return cmdScan(ctx, client, cfg, cmdArgs)
	case "copyright":
		return cmdCopyright(ctx, client, cfg, cmdArgs)
	case "report":
		return cmdReport(ctx, client, cfg, cmdArgs)
	case "bulk":
		return cmdBulk(ctx, client, cmdArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("FD_CONFIG_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "fossdrive.yaml"
	}
	return home + "/.fossdrive.yaml"
}

// login builds the session and performs the one-time console login. The
// password falls back to a terminal prompt when neither config nor
// environment provides one.
func login(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*fossology.Client, error) {
	password := cfg.Server.Password
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("no password configured and stdin is not a terminal")
		}
		fmt.Fprintf(os.Stderr, "password for %s@%s: ", cfg.Server.Username, cfg.Server.URL)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		password = string(raw)
	}

	session, err := transport.New(cfg.Server.URL, transport.Config{
		Timeout:           cfg.HTTP.Timeout(),
		RetryPause:        cfg.HTTP.RetryPause(),
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	client := fossology.New(session, logger)
	if err := client.Login(ctx, cfg.Server.Username, password); err != nil {
		return nil, err
	}
	return client, nil
}

// waitCtx bounds an agent wait with the configured maximum, when set.
func waitCtx(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if limit := cfg.MaxWait(); limit > 0 {
		return context.WithTimeout(ctx, limit)
	}
	return context.WithCancel(ctx)
}

func cmdUpload(ctx context.Context, client *fossology.Client, args []string) error {
	flags := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	folder := flags.String("folder", "Software Repository", "destination folder name")
	file := flags.String("file", "", "path of the file to upload")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	folderID, err := client.FolderID(ctx, *folder)
	if err != nil {
		return err
	}
	uploadID, err := client.UploadFile(ctx, *file, folderID)
	if err != nil {
		return err
	}
	fmt.Printf("upload %d\n", uploadID)
	return nil
}

func resolveUpload(ctx context.Context, client *fossology.Client, folder, upload string, exact bool) (int64, error) {
	folderID, err := client.FolderID(ctx, folder)
	if err != nil {
		return 0, err
	}
	return client.UploadID(ctx, folderID, upload, exact)
}

func cmdScan(ctx context.Context, client *fossology.Client, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	folder := flags.String("folder", "Software Repository", "folder containing the upload")
	upload := flags.String("upload", "", "upload name")
	exact := flags.Bool("exact", true, "match the upload name exactly")
	reuse := flags.String("reuse", "", "name of a previous upload whose decisions to reuse")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *upload == "" {
		return fmt.Errorf("--upload is required")
	}

	uploadID, err := resolveUpload(ctx, client, *folder, *upload, *exact)
	if err != nil {
		return err
	}

	if *reuse != "" {
		reuseID, err := resolveUpload(ctx, client, *folder, *reuse, *exact)
		if err != nil {
			return err
		}
		if err := client.StartReuserAgent(ctx, uploadID, reuseID); err != nil {
			return err
		}
		wctx, cancel := waitCtx(ctx, cfg)
		err = client.WaitForAgent(wctx, uploadID, "reuser", cfg.PollInterval())
		cancel()
		if err != nil {
			return err
		}
	}

	if err := client.StartLicenseScanAgents(ctx, uploadID); err != nil {
		return err
	}
	wctx, cancel := waitCtx(ctx, cfg)
	defer cancel()
	for _, agent := range []string{"monk", "nomos"} {
		if err := client.WaitForAgent(wctx, uploadID, agent, cfg.PollInterval()); err != nil {
			return err
		}
	}
	fmt.Printf("scan of upload %d complete\n", uploadID)
	return nil
}

func cmdCopyright(ctx context.Context, client *fossology.Client, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("copyright", pflag.ContinueOnError)
	folder := flags.String("folder", "Software Repository", "folder containing the upload")
	upload := flags.String("upload", "", "upload name")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *upload == "" {
		return fmt.Errorf("--upload is required")
	}

	uploadID, err := resolveUpload(ctx, client, *folder, *upload, true)
	if err != nil {
		return err
	}
	if err := client.StartCopyrightAgent(ctx, uploadID); err != nil {
		return err
	}
	wctx, cancel := waitCtx(ctx, cfg)
	defer cancel()
	if err := client.WaitForAgent(wctx, uploadID, "copyright", cfg.PollInterval()); err != nil {
		return err
	}
	fmt.Printf("copyright scan of upload %d complete\n", uploadID)
	return nil
}

func cmdReport(ctx context.Context, client *fossology.Client, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("report", pflag.ContinueOnError)
	folder := flags.String("folder", "Software Repository", "folder containing the upload")
	upload := flags.String("upload", "", "upload name")
	out := flags.String("out", "", "path to write the report to")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *upload == "" || *out == "" {
		return fmt.Errorf("--upload and --out are required")
	}

	uploadID, err := resolveUpload(ctx, client, *folder, *upload, true)
	if err != nil {
		return err
	}
	if err := client.StartReportGeneratorAgent(ctx, uploadID, fossology.FormatSPDX2TV); err != nil {
		return err
	}
	wctx, cancel := waitCtx(ctx, cfg)
	defer cancel()
	if err := client.WaitForAgent(wctx, uploadID, string(fossology.FormatSPDX2TV), cfg.PollInterval()); err != nil {
		return err
	}

	ok, err := client.FetchReport(ctx, uploadID, fossology.FormatSPDX2TV, *out)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("report for upload %d is not available", uploadID)
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}

func cmdBulk(ctx context.Context, client *fossology.Client, args []string) error {
	flags := pflag.NewFlagSet("bulk", pflag.ContinueOnError)
	folder := flags.String("folder", "Software Repository", "folder containing the upload")
	upload := flags.String("upload", "", "upload name")
	item := flags.Int64("item", 0, "tree item id within the upload")
	refFile := flags.String("ref-text", "", "file holding the reference text to match")
	actionSpecs := flags.StringArray("action", nil, "action as VERB:LICENSE, e.g. add:MIT (repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *upload == "" || *item == 0 || *refFile == "" || len(*actionSpecs) == 0 {
		return fmt.Errorf("--upload, --item, --ref-text and at least one --action are required")
	}

	refText, err := os.ReadFile(*refFile)
	if err != nil {
		return fmt.Errorf("reading reference text: %w", err)
	}

	uploadID, err := resolveUpload(ctx, client, *folder, *upload, true)
	if err != nil {
		return err
	}
	licenses, err := client.Licenses(ctx, uploadID, *item)
	if err != nil {
		return err
	}

	actions := make([]fossology.BulkTextMatchAction, 0, len(*actionSpecs))
	for _, spec := range *actionSpecs {
		verb, name, ok := strings.Cut(spec, ":")
		if !ok {
			return fmt.Errorf("malformed --action %q, want VERB:LICENSE", spec)
		}
		parsed, err := fossology.ParseAction(verb)
		if err != nil {
			return err
		}
		lic, err := fossology.FindLicense(licenses, name)
		if err != nil {
			return err
		}
		action, err := fossology.NewBulkTextMatchAction(lic, parsed)
		if err != nil {
			return err
		}
		actions = append(actions, action)
	}

	if err := client.StartBulkTextMatch(ctx, string(refText), *item, actions); err != nil {
		return err
	}
	fmt.Printf("bulk text match started on item %d (%d actions)\n", *item, len(actions))
	return nil
}
