package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/railscookie/pkg/bridge"
	"github.com/dmitrymomot/railscookie/pkg/config"
	"github.com/dmitrymomot/railscookie/pkg/cookie"
	"github.com/dmitrymomot/railscookie/pkg/httpserver"
	"github.com/dmitrymomot/railscookie/pkg/logger"
	"github.com/dmitrymomot/railscookie/pkg/requestid"
)

var errUsage = errors.New("usage")

type cli struct {
	envFile   string
	format    string
	cookieKey string
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	fs := flag.NewFlagSet("railscookie", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.envFile, "env-file", "", "read configuration from this env file")
	fs.StringVar(&c.format, "format", "json", "output format: json or yaml")
	fs.StringVar(&c.cookieKey, "cookie-key", "", "treat the argument as a Cookie header and read this cookie")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: railscookie [flags] decrypt|verify|encrypt|sign|cookies <arg|-> | serve")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	err := c.dispatch(ctx, fs.Args())
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 2
	default:
		fmt.Fprintln(stderr, "railscookie:", err)
		return 1
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	if c.format != "json" && c.format != "yaml" {
		return fmt.Errorf("%w: unknown format %q", errUsage, c.format)
	}

	cmd, rest := args[0], args[1:]
	if cmd == "serve" {
		return c.serve(ctx)
	}

	if len(rest) != 1 {
		return fmt.Errorf("%w: %s takes exactly one argument", errUsage, cmd)
	}
	arg, err := c.argument(rest[0])
	if err != nil {
		return err
	}

	if cmd == "cookies" {
		return c.print(cookie.Cookies(arg))
	}

	m, err := c.manager()
	if err != nil {
		return err
	}

	switch cmd {
	case "decrypt":
		return c.read(arg, m.Decrypt, m.DecryptCookieKey)
	case "verify":
		return c.read(arg, m.VerifyAndDeserialize, m.SignedCookieKey)
	case "encrypt":
		return c.write(arg, m.Encrypt)
	case "sign":
		return c.write(arg, m.SerializeAndSign)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// argument returns arg, or standard input without its trailing newline
// when arg is "-".
func (c *cli) argument(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (c *cli) read(arg string, byValue func(string) (any, error), byHeader func(string, string) (any, error)) error {
	var (
		v   any
		err error
	)
	if c.cookieKey != "" {
		v, err = byHeader(arg, c.cookieKey)
	} else {
		v, err = byValue(arg)
	}
	if err != nil {
		return err
	}
	return c.print(v)
}

func (c *cli) write(arg string, fn func(any) (string, error)) error {
	v, err := bridge.DecodeValue([]byte(arg))
	if err != nil {
		return fmt.Errorf("value is not valid JSON: %w", err)
	}
	value, err := fn(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, value)
	return err
}

func (c *cli) print(v any) error {
	if c.format == "yaml" {
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := c.stdout.Write(buf.Bytes())
	return err
}

func load[T any](envFile string, cfg *T) error {
	if envFile != "" {
		return config.LoadFile(cfg, envFile)
	}
	return config.Load(cfg)
}

func (c *cli) manager(opts ...cookie.Option) (*cookie.Manager, error) {
	var cfg cookie.Config
	if err := load(c.envFile, &cfg); err != nil {
		return nil, err
	}
	return cookie.NewFromConfig(cfg, opts...)
}

func (c *cli) serve(ctx context.Context) error {
	var (
		logCfg    logger.Config
		serverCfg httpserver.Config
		bridgeCfg bridge.Config
	)
	if err := errors.Join(
		load(c.envFile, &logCfg),
		load(c.envFile, &serverCfg),
		load(c.envFile, &bridgeCfg),
	); err != nil {
		return err
	}

	log, err := logger.NewFromConfig(logCfg,
		logger.WithOutput(c.stderr),
		logger.WithContextExtractors(requestid.Extractor()),
	)
	if err != nil {
		return err
	}

	m, err := c.manager(cookie.WithLogger(log))
	if err != nil {
		return err
	}

	router := bridge.NewRouterFromConfig(m, bridgeCfg, bridge.WithLogger(log))
	srv := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}
