package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ai-help-me/ftpm/pkg/config"
	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/logging"
	"github.com/ai-help-me/ftpm/pkg/session"
	"github.com/ai-help-me/ftpm/pkg/shell"
	"github.com/ai-help-me/ftpm/pkg/terminal"
	"github.com/ai-help-me/ftpm/pkg/tui"
	"github.com/ai-help-me/ftpm/pkg/web"
)

const usage = `Usage:
  ftpm                    pick a saved profile and open it
  ftpm shell [profile]    open the interactive shell for a profile
  ftpm tree [profile]     print the remote directory tree of a profile
  ftpm serve              run the HTTP file manager API
  ftpm add <name> [user@]host[:port] [--ssl] [--passive]
                          save a new top-level profile

Profiles are read from ~/.ftpm.yaml and ~/.ftpm.toml, or from $FTPM_CONFIG.
New profiles are written to $FTPM_CONFIG, or ~/.ftpm.yaml. Passwords are
not saved; they are asked for when connecting.
The server is configured with FTPM_* environment variables.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// command is a parsed command line.
type command struct {
	name    string
	profile string

	// add only
	target  string
	ssl     bool
	passive bool
}

var errUsage = errors.New("invalid arguments")

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{name: tui.ActionShell}, nil
	}

	switch args[0] {
	case "serve":
		if len(args) > 1 {
			return command{}, errUsage
		}
		return command{name: "serve"}, nil
	case tui.ActionShell, tui.ActionTree:
		if len(args) > 2 {
			return command{}, errUsage
		}
		cmd := command{name: args[0]}
		if len(args) == 2 {
			cmd.profile = args[1]
		}
		return cmd, nil
	case "add":
		return parseAdd(args[1:])
	case "help", "-h", "--help":
		return command{name: "help"}, nil
	default:
		return command{}, errUsage
	}
}

func parseAdd(args []string) (command, error) {
	cmd := command{name: "add"}
	var positional []string
	for _, a := range args {
		switch a {
		case "--ssl":
			cmd.ssl = true
		case "--passive":
			cmd.passive = true
		default:
			if strings.HasPrefix(a, "-") {
				return command{}, errUsage
			}
			positional = append(positional, a)
		}
	}
	if len(positional) != 2 {
		return command{}, errUsage
	}
	cmd.profile, cmd.target = positional[0], positional[1]
	return cmd, nil
}

func run(args []string) error {
	cmd, err := parseArgs(args)
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		return err
	}

	switch cmd.name {
	case "help":
		fmt.Fprint(os.Stdout, usage)
		return nil
	case "serve":
		return serve()
	case "add":
		path, err := addProfile(os.Getenv("FTPM_CONFIG"), cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved profile %q to %s\n", cmd.profile, path)
		return nil
	default:
		return openProfile(cmd)
	}
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.SessionTTL, session.WithLogger(logger))
	go store.Run(ctx, cfg.SweepInterval)

	srv := web.New(cfg, store, ftp.NetDialer{InsecureSkipVerify: cfg.TLSSkipVerify}, web.WithLogger(logger))
	runErr := srv.Run(ctx)

	if err := store.Close(); err != nil {
		logger.Warn("closing sessions", zap.Error(err))
	}
	if runErr != nil {
		return fmt.Errorf("http server: %w", runErr)
	}
	logger.Info("server stopped")
	return nil
}

// openProfile resolves a profile, by name or through the picker, and runs
// the shell or prints the tree.
func openProfile(cmd command) error {
	logger, err := logging.New(logging.Config{
		Level:       envOr("FTPM_LOG_LEVEL", "warn"),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("FTPM_CONFIG"), logger)
	if err != nil {
		return fmt.Errorf("load config: %w (create ~/.ftpm.yaml with your profiles)", err)
	}

	termMgr := terminal.New()
	defer termMgr.Cleanup(os.Stdout)

	profile, action, err := resolveProfile(cfg, cmd)
	if err != nil || profile == nil {
		return err
	}

	ftpCfg := profile.FTPConfig()
	if ftpCfg.Password == "" {
		prompt := fmt.Sprintf("Password for %s@%s: ", ftpCfg.Username, ftpCfg.Host)
		if ftpCfg.Password, err = termMgr.ReadPassword(prompt, os.Stderr); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Connecting to %s...\n", ftpCfg.Addr())
	adapter, err := ftp.Open(ftpCfg, ftp.NetDialer{}, ftp.WithLogger(logger.With(zap.String("profile", profile.Name))))
	if err != nil {
		return err
	}
	defer func() { _ = adapter.Close() }()

	paths, err := shell.NewPathState()
	if err != nil {
		return err
	}
	sh := shell.New(adapter, paths, shell.WithColor(termMgr.IsTerminal()))

	if action == tui.ActionTree {
		return sh.Execute("tree", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	return sh.Run(ctx)
}

func resolveProfile(cfg *config.Config, cmd command) (*config.Profile, string, error) {
	if cmd.profile != "" {
		p := cfg.FindProfile(cmd.profile)
		if p == nil {
			return nil, "", fmt.Errorf("profile %q not found", cmd.profile)
		}
		if p.IsGroup() {
			return nil, "", fmt.Errorf("%q is a group, not a profile", cmd.profile)
		}
		return p, cmd.name, nil
	}

	if len(cfg.Profiles) == 0 {
		return nil, "", errors.New("no profiles found in config")
	}
	return pick(cfg)
}

// pick runs the TUI. A nil profile means the user quit.
func pick(cfg *config.Config) (*config.Profile, string, error) {
	program := tea.NewProgram(tui.NewModel(cfg), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return nil, "", fmt.Errorf("tui: %w", err)
	}

	model, ok := final.(tui.Model)
	if !ok {
		return nil, "", errors.New("unexpected tui model")
	}
	if model.Quitted || model.Selected == nil || model.Action == "" {
		return nil, "", nil
	}
	return model.Selected, model.Action, nil
}

// addProfile appends a profile to the file at path, or to ~/.ftpm.yaml
// when path is empty, creating the file if needed. It returns the file
// written.
func addProfile(path string, cmd command) (string, error) {
	if path == "" {
		paths, err := config.DefaultConfigPaths()
		if err != nil {
			return "", err
		}
		path = paths[0]
	}

	p, err := profileFromTarget(cmd.profile, cmd.target)
	if err != nil {
		return "", err
	}
	p.SSL, p.Passive = cmd.ssl, cmd.passive
	if err := p.Validate(); err != nil {
		return "", err
	}

	cfg := &config.Config{}
	if config.Exists(path) {
		if cfg, err = config.Load(path, nil); err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
	}
	if cfg.FindProfile(p.Name) != nil {
		return "", fmt.Errorf("profile %q already exists in %s", p.Name, path)
	}

	cfg.Profiles = append(cfg.Profiles, p)
	if err := config.Save(cfg, path); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	return path, nil
}

// profileFromTarget parses [user@]host[:port]. The user defaults to
// anonymous and the port to 21.
func profileFromTarget(name, target string) (*config.Profile, error) {
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("profile name %q must not contain /", name)
	}

	p := &config.Profile{Name: name, User: "anonymous", Port: ftp.DefaultPort}
	hostPort := target
	if user, rest, ok := strings.Cut(target, "@"); ok {
		p.User, hostPort = user, rest
	}

	p.Host = hostPort
	if host, port, err := net.SplitHostPort(hostPort); err == nil {
		n, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q", target)
		}
		p.Host, p.Port = host, n
	}
	if p.Host == "" || p.User == "" {
		return nil, fmt.Errorf("invalid target %q, want [user@]host[:port]", target)
	}
	return p, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
