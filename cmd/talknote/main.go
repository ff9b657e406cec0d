package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/pkg/talknote"
	flag "github.com/spf13/pflag"
)

const usage = `usage: talknote [flags] <command> [id] [message]

commands:
  dm                        list direct-message threads
  dm-list <thread>          list posts of a direct-message thread
  dm-unread <thread>        unread count of a direct-message thread
  dm-post <thread> <msg>    post to a direct-message thread
  group                     list groups
  group-list <group>        list posts of a group
  group-unread <group>      unread count of a group
  group-post <group> <msg>  post to a group

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("talknote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", os.Getenv("TALKNOTE_ACCESS_TOKEN"), "OAuth access token")
	baseURL := fs.String("base-url", os.Getenv("TALKNOTE_API_URL"), "API base URL")
	logLevel := fs.String("log-level", "error", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if strings.TrimSpace(*token) == "" {
		fmt.Fprintln(stderr, "talknote: --token or TALKNOTE_ACCESS_TOKEN is required")
		return 2
	}

	log := logger.NewTo(*logLevel, stderr)
	defer func() { _ = log.Sync() }()

	client := talknote.New(*token, talknote.Options{
		BaseURL:  *baseURL,
		LogLevel: talknote.LogLevel(*logLevel),
		Logger:   log,
	})

	res, err := dispatch(ctx, client, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "talknote: %v\n", err)
		fs.Usage()
		return 2
	}

	out, err := json.Marshal(res)
	if err != nil {
		fmt.Fprintf(stderr, "talknote: encode result: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))

	if !res.RemoteOK() {
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, c *talknote.Client, args []string) (talknote.Result, error) {
	cmd, rest := args[0], args[1:]
	arg := func(i int) string {
		if i < len(rest) {
			return rest[i]
		}
		return ""
	}
	message := strings.Join(rest[min(1, len(rest)):], " ")

	switch cmd {
	case "dm":
		return c.DMThreads(ctx), nil
	case "dm-list":
		return c.DMThreadPosts(ctx, arg(0)), nil
	case "dm-unread":
		return c.DMUnreadCount(ctx, arg(0)), nil
	case "dm-post":
		return c.PostDirectMessage(ctx, arg(0), message), nil
	case "group":
		return c.GroupThreads(ctx), nil
	case "group-list":
		return c.GroupThreadPosts(ctx, arg(0)), nil
	case "group-unread":
		return c.GroupUnreadCount(ctx, arg(0)), nil
	case "group-post":
		return c.PostGroupMessage(ctx, arg(0), message), nil
	default:
		return talknote.Result{}, fmt.Errorf("unknown command %q", cmd)
	}
}
