package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m-manu/ftp-sidekick/config"
	"github.com/m-manu/ftp-sidekick/diag"
	"github.com/m-manu/ftp-sidekick/entity"
	"github.com/m-manu/ftp-sidekick/fmte"
	"github.com/m-manu/ftp-sidekick/remote"
	"github.com/m-manu/ftp-sidekick/service"
	"github.com/m-manu/ftp-sidekick/session"
	"github.com/m-manu/ftp-sidekick/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// usageError is a mistake on the command line
type usageError struct {
	error
}

func usageErrorf(format string, a ...any) error {
	return usageError{fmt.Errorf(format, a...)}
}

func exitCodeOf(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return exitCodeSuccess
	case errors.As(err, &usage):
		return exitCodeUsageError
	case errors.Is(err, session.ErrPartialTree):
		return exitCodePartialTreeFailure
	}
	return exitCodeFailure
}

type globalFlags struct {
	configPath    string
	profile       string
	password      string
	passwordStdin bool
	timeout       time.Duration
	debug         bool
	verbose       bool
	logFormat     string
	passive       bool
	mode          string
	disableEPSV   bool
	insecure      bool
	knownHosts    string
}

type treeFlags struct {
	failFast bool
	dryRun   bool
}

type app struct {
	flags  globalFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// newDialer picks the transport; replaced in tests
	newDialer func(loc remote.Location, opts remote.DialOptions) (transport.Dialer, error)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		getenv:    os.Getenv,
		newDialer: remote.NewDialer,
	}
}

func (a *app) run(args []string) int {
	fmte.SetOutput(a.stdout, a.stderr)
	root := a.rootCommand()
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		var partial *session.PartialTreeError
		if errors.As(err, &partial) {
			fmte.PrintfErr("error: %s\n", partial.Details())
		} else {
			fmte.PrintfErr("error: %v\n", err)
		}
		var usage usageError
		if errors.As(err, &usage) {
			fmte.PrintfErr("Run \"ftp-sidekick --help\" for usage\n")
		}
	}
	return exitCodeOf(err)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s takes %d argument(s), %d given", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return usageErrorf("%s takes %d to %d arguments, %d given", cmd.Name(), lo, hi, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("%s takes at least %d arguments, %d given", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ftp-sidekick",
		Short: "Work with files and whole directory trees on FTP, FTPS and SFTP servers",
		Long: `ftp-sidekick runs single file operations and recursive tree operations
(upload, download, delete, size) against a remote server.

Remote locations are written as:
	ftp://[user[:password]@]host[:port]/path
	ftps://...   (explicit TLS)
	sftp://...
	[user@]host:[port:]path   (sftp)
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// arguments reach RunE, so unknown commands and root flags are usage errors
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.flags.logFormat {
			case "text", "json":
			default:
				return usageErrorf("invalid log format %q (expected text or json)", a.flags.logFormat)
			}
			if _, err := a.transferMode(); err != nil {
				return err
			}
			fmte.SetVerbose(a.flags.verbose)
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "profiles file (default $XDG_CONFIG_HOME/ftp-sidekick/profiles.yml)")
	flags.StringVar(&a.flags.profile, "profile", "", "profile to take connection defaults from (or $"+config.EnvProfile+")")
	flags.StringVar(&a.flags.password, "password", "", "password (or $"+config.EnvPassword+")")
	flags.BoolVar(&a.flags.passwordStdin, "password-stdin", false, "read the password from the first line of standard input")
	flags.DurationVar(&a.flags.timeout, "timeout", 0, "connection timeout (default 30s)")
	flags.BoolVar(&a.flags.debug, "debug", false, "log every remote operation")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "print progress and the time spent on the server")
	flags.StringVar(&a.flags.logFormat, "log-format", "text", "format of debug logs: text or json")
	flags.BoolVar(&a.flags.passive, "passive", false, "switch to passive mode after login")
	flags.StringVar(&a.flags.mode, "mode", "auto", "transfer mode: auto, text or binary")
	flags.BoolVar(&a.flags.disableEPSV, "disable-epsv", false, "use PASV instead of EPSV")
	flags.BoolVar(&a.flags.insecure, "insecure", false, "skip TLS certificate and SSH host key checks")
	flags.StringVar(&a.flags.knownHosts, "known-hosts", "", "known_hosts file for sftp (default ~/.ssh/known_hosts)")

	root.AddCommand(
		a.lsCommand(),
		a.nlistCommand(),
		a.pwdCommand(),
		a.getCommand(),
		a.putCommand(),
		a.getdirCommand(),
		a.putdirCommand(),
		a.rmCommand(),
		a.rmdirCommand(),
		a.mkdirCommand(),
		a.mvCommand(),
		a.chmodCommand(),
		a.sizeCommand(),
		a.duCommand(),
		a.mdtmCommand(),
		a.siteCommand(),
		a.execCommand(),
	)
	return root
}

func addTreeFlags(flags *pflag.FlagSet, tf *treeFlags, withFailFast bool) {
	if withFailFast {
		flags.BoolVar(&tf.failFast, "fail-fast", false, "stop at the first failed entry")
	}
	flags.BoolVar(&tf.dryRun, "dry-run", false, "print the commands that would run instead of running them")
}

func (a *app) transferMode() (entity.TransferMode, error) {
	mode, err := entity.ParseTransferMode(a.flags.mode)
	if err != nil {
		return entity.Auto, usageError{err}
	}
	return mode, nil
}

// connect resolves the location against the chosen profile, dials and logs in
func (a *app) connect(ctx context.Context, arg string) (*session.Session, remote.Location, error) {
	var loc remote.Location
	profiles, err := config.Load(a.flags.configPath)
	if err != nil {
		return nil, loc, err
	}
	profile, err := profiles.Profile(a.flags.profile, a.getenv)
	if err != nil {
		return nil, loc, usageError{err}
	}
	if loc, err = locationFor(arg, profile); err != nil {
		return nil, loc, usageError{err}
	}

	creds := session.Credentials{Host: loc.Host, Port: loc.Port, User: loc.User, Timeout: a.flags.timeout}
	if creds.Port == 0 && profile.Port != 0 {
		creds.Port = profile.Port
	}
	if creds.User == "" {
		creds.User = profile.User
	}
	if creds.User == "" && loc.Scheme != remote.SchemeSFTP {
		creds.User = "anonymous"
	}
	if creds.Timeout == 0 {
		creds.Timeout = profile.Timeout
	}
	if creds.Password, err = a.password(loc, profile); err != nil {
		return nil, loc, err
	}

	insecure := a.flags.insecure || profile.InsecureIgnoreHostKey
	knownHosts := a.flags.knownHosts
	if knownHosts == "" {
		knownHosts = profile.KnownHosts
	}
	dialOpts := remote.DialOptions{
		DisableEPSV:        a.flags.disableEPSV || profile.DisableEPSV,
		InsecureSkipVerify: insecure,
		SSH:                remote.SSHOptions{KnownHostsFile: knownHosts, InsecureIgnoreHostKey: insecure},
	}
	if loc.Scheme == remote.SchemeFTP && profile.ExplicitTLS {
		loc.Scheme = remote.SchemeFTPS
	}
	debug := a.flags.debug || profile.Debug
	if debug {
		dialOpts.DebugOutput = a.stderr
	}
	dialer, err := a.newDialer(loc, dialOpts)
	if err != nil {
		return nil, loc, usageError{err}
	}

	opts := []session.Option{
		session.WithDebug(debug),
		session.WithSink(diag.NewLogrusSink(a.stderr, a.flags.logFormat)),
	}
	if len(profile.TextExtensions) > 0 {
		opts = append(opts, session.WithTextExtensions(profile.TextExtensions...))
	}
	s := session.New(dialer, opts...)
	fmte.PrintfV("Connecting to %s\n", loc)
	if err := s.Connect(ctx, creds); err != nil {
		return nil, loc, err
	}
	if a.flags.passive || (profile.Passive != nil && *profile.Passive) {
		if err := s.Pasv(true); err != nil {
			_ = s.Close()
			return nil, loc, err
		}
	}
	return s, loc, nil
}

// locationFor parses arg. A bare absolute path refers to the profile's server.
func locationFor(arg string, profile config.Profile) (remote.Location, error) {
	if !strings.HasPrefix(arg, "/") {
		return remote.ParseLocation(arg)
	}
	if profile.Host == "" {
		return remote.Location{}, fmt.Errorf("location %q has no host and no profile with a host is selected", arg)
	}
	scheme := remote.Scheme(strings.ToLower(profile.Scheme))
	if scheme == "" {
		scheme = remote.SchemeFTP
	}
	return remote.Location{Scheme: scheme, Host: profile.Host, Path: arg}, nil
}

// password picks, in order: --password-stdin, --password, the URL, the profile
// (which already carries $FTP_SIDEKICK_PASSWORD). nil means anonymous.
func (a *app) password(loc remote.Location, profile config.Profile) (*string, error) {
	switch {
	case a.flags.passwordStdin:
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("cannot read password from standard input: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		return &password, nil
	case a.flags.password != "":
		password := a.flags.password
		return &password, nil
	case loc.Password != nil:
		return loc.Password, nil
	}
	return profile.Password, nil
}

// withSession runs fn on a logged-in session and closes it afterwards
func (a *app) withSession(cmd *cobra.Command, arg string, fn func(s *session.Session, loc remote.Location) error) error {
	s, loc, err := a.connect(cmd.Context(), arg)
	if err != nil {
		return err
	}
	err = fn(s, loc)
	if closeErr := s.Close(); err == nil && closeErr != nil {
		fmte.PrintfErr("warning: %v\n", closeErr)
	}
	fmte.PrintfV("Time spent on the server: %s\n", s.Elapsed().Round(time.Millisecond))
	return err
}

func (a *app) lsCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "ls [-l] location",
		Short: "List a remote directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				if !long {
					list, err := s.DirList(loc.Path)
					if err != nil {
						return err
					}
					for _, n := range list {
						fmte.Printf("%s\n", n)
					}
					return nil
				}
				entries, err := s.Entries(loc.Path)
				if err != nil {
					return err
				}
				for _, e := range entries {
					size := "-"
					if e.Kind != entity.Directory {
						size = humanize.IBytes(uint64(e.Size))
					}
					fmte.Printf("%-9s %10s  %s\n", e.Kind, size, e.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show kind and size")
	return cmd
}

func (a *app) nlistCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nlist location",
		Short: "List the bare names in a remote directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				names, err := s.NList(loc.Path)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmte.Printf("%s\n", name)
				}
				return nil
			})
		},
	}
}

func (a *app) pwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pwd location",
		Short: "Change into the location's directory and print the working directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				if err := s.ChDir(loc.Path); err != nil {
					return err
				}
				dir, err := s.Pwd()
				if err != nil {
					return err
				}
				fmte.Printf("%s\n", dir)
				return nil
			})
		},
	}
}

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get location [local-file]",
		Short: "Download a file",
		Args:  rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.transferMode()
			if err != nil {
				return err
			}
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				local := path.Base(loc.Path)
				if len(args) == 2 {
					local = args[1]
				}
				if info, err := os.Stat(local); err == nil && info.IsDir() {
					local = filepath.Join(local, path.Base(loc.Path))
				}
				return s.Get(local, loc.Path, mode)
			})
		},
	}
}

func (a *app) putCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put local-file location",
		Short: "Upload a file; a location ending in / receives the file under its own name",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.transferMode()
			if err != nil {
				return err
			}
			return a.withSession(cmd, args[1], func(s *session.Session, loc remote.Location) error {
				target := loc.Path
				if strings.HasSuffix(target, "/") {
					target = loc.Join(filepath.Base(args[0])).Path
				}
				return s.Put(args[0], target, mode)
			})
		},
	}
}

func (a *app) runTree(s *session.Session, tf treeFlags, run func(e *service.Engine) error) error {
	e := service.NewEngine(s)
	e.SetDryRun(tf.dryRun)
	err := run(e)
	if tf.dryRun {
		for _, command := range e.Plan().Commands() {
			fmte.Printf("%s\n", command)
		}
	}
	return err
}

func (a *app) getdirCommand() *cobra.Command {
	var tf treeFlags
	cmd := &cobra.Command{
		Use:   "getdir location local-dir",
		Short: "Download a remote directory tree",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.transferMode()
			if err != nil {
				return err
			}
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return a.runTree(s, tf, func(e *service.Engine) error {
					return e.DownloadTree(args[1], loc.Path, mode, service.TreeOpPolicy{FailFast: tf.failFast})
				})
			})
		},
	}
	addTreeFlags(cmd.Flags(), &tf, true)
	return cmd
}

func (a *app) putdirCommand() *cobra.Command {
	var tf treeFlags
	cmd := &cobra.Command{
		Use:   "putdir local-dir location",
		Short: "Upload a local directory tree into an existing remote directory",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.transferMode()
			if err != nil {
				return err
			}
			return a.withSession(cmd, args[1], func(s *session.Session, loc remote.Location) error {
				return a.runTree(s, tf, func(e *service.Engine) error {
					return e.UploadTree(args[0], loc.Path, mode, service.TreeOpPolicy{FailFast: tf.failFast})
				})
			})
		},
	}
	addTreeFlags(cmd.Flags(), &tf, true)
	return cmd
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm location",
		Short: "Delete a remote file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return s.Delete(loc.Path)
			})
		},
	}
}

func (a *app) rmdirCommand() *cobra.Command {
	var tf treeFlags
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rmdir [-r] location",
		Short: "Remove a remote directory, with -r including everything in it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return a.runTree(s, tf, func(e *service.Engine) error {
					return e.DeleteTree(loc.Path, recursive)
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete the whole tree")
	addTreeFlags(cmd.Flags(), &tf, false)
	return cmd
}

func (a *app) mkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir location",
		Short: "Create a remote directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return s.Mkdir(loc.Path)
			})
		},
	}
}

func (a *app) mvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv location new-path",
		Short: "Rename or move a remote file or directory",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return s.Rename(loc.Path, args[1])
			})
		},
	}
}

func (a *app) chmodCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chmod octal-mode location",
		Short: "Change the permissions of a remote file",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := strconv.ParseUint(args[0], 8, 32)
			if err != nil || perm > 0777 {
				return usageErrorf("invalid mode %q: expected octal like 644", args[0])
			}
			return a.withSession(cmd, args[1], func(s *session.Session, loc remote.Location) error {
				return s.Chmod(os.FileMode(perm), loc.Path)
			})
		},
	}
}

func (a *app) sizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "size location",
		Short: "Print the size of a remote file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				size, err := s.Size(loc.Path)
				if err != nil {
					return err
				}
				fmte.Printf("%s (%d bytes)\n", humanize.IBytes(uint64(size)), size)
				return nil
			})
		},
	}
}

func (a *app) duCommand() *cobra.Command {
	var failFast bool
	cmd := &cobra.Command{
		Use:   "du location",
		Short: "Print the total size of the files in a remote directory tree",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				total, err := service.NewEngine(s).DirSize(loc.Path, service.TreeOpPolicy{FailFast: failFast})
				if err == nil || errors.Is(err, session.ErrPartialTree) {
					fmte.Printf("%s (%d bytes)\t%s\n", humanize.IBytes(uint64(total)), total, loc.Path)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed entry")
	return cmd
}

func (a *app) mdtmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mdtm location",
		Short: "Print the modification time of a remote file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				modTime, err := s.Mdtm(loc.Path)
				if err != nil {
					return err
				}
				fmte.Printf("%s (%s)\n", modTime.Format(time.RFC3339), humanize.Time(modTime))
				return nil
			})
		},
	}
}

func (a *app) siteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "site location command...",
		Short: "Send a SITE command",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				return s.Site(strings.Join(args[1:], " "))
			})
		},
	}
}

func (a *app) execCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec location command...",
		Short: "Run a command on the server and print its output",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(s *session.Session, loc remote.Location) error {
				output, err := s.Exec(strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmte.Printf("%s", output)
				if output != "" && !strings.HasSuffix(output, "\n") {
					fmte.Printf("\n")
				}
				return nil
			})
		},
	}
}
