// Command minuteman is the Minuteman CLI client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"minuteman/internal/version"
)

const defaultServer = "http://localhost:8000"

func main() {
	var (
		serverURL = flag.String("server", defaultServer, "minuteman server URL")
		token     = flag.String("token", os.Getenv("MINUTEMAN_TOKEN"), "JWT auth token")
	)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		Token:      *token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "version":
		err = cmdVersion(rest)
	case "status":
		err = cli.cmdStatus(rest)
	case "login":
		err = cli.cmdLogin(rest)
	case "tasks":
		err = cli.cmdTasks(rest)
	case "task":
		err = cli.cmdTask(rest)
	case "capture":
		err = cli.cmdCapture(rest)
	case "briefing":
		err = cli.cmdBriefing(rest)
	case "productivity":
		err = cli.cmdProductivity(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `minuteman - Minuteman CLI

Usage:
  minuteman [flags] <command> [args]

Flags:
  --server  <url>    server URL (default: http://localhost:8000)
  --token   <token>  JWT auth token (or $MINUTEMAN_TOKEN)

Commands:
  version                  print version
  status                   show server status
  login <user> <pass>      obtain an auth token
  tasks [--mine]           list tasks
  task <id>                show a task
  task submit <id>         submit a task for verification
  task complete <id>       mark a task done
  capture <text>           capture a quick task
  briefing                 show the daily briefing
  productivity [--days N]  show productivity metrics
`)
}

// --- version ---

func cmdVersion(_ []string) error {
	fmt.Printf("minuteman %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.BuildDate)
	return nil
}

// Client holds HTTP client state for CLI commands.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// get performs a GET and decodes JSON into v.
func (c *Client) get(path string, v any) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// post performs a POST and decodes JSON response into v (may be nil).
func (c *Client) post(path string, body io.Reader, v any) error {
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v != nil && resp.ContentLength != 0 {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// --- status ---

func (c *Client) cmdStatus(_ []string) error {
	var result map[string]string
	if err := c.get("/api/status", &result); err != nil {
		return err
	}
	fmt.Printf("status:  %s\n", result["status"])
	fmt.Printf("version: %s\n", result["version"])
	return nil
}

// --- login ---

func (c *Client) cmdLogin(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: minuteman login <username> <password>")
	}
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, args[0], args[1])
	var result map[string]any
	if err := c.post("/api/auth/login", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Println(strVal(result["token"]))
	fmt.Fprintln(os.Stderr, "export MINUTEMAN_TOKEN to authenticate subsequent commands")
	return nil
}

// --- tasks ---

func (c *Client) cmdTasks(args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ExitOnError)
	mine := fs.Bool("mine", false, "only tasks assigned to me")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := "/api/tasks"
	if *mine {
		path = "/api/tasks/my"
	}
	var tasks []map[string]any
	if err := c.get(path, &tasks); err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	fmt.Printf("%-36s %-40s %-24s %-4s %-4s\n", "ID", "DESCRIPTION", "STATUS", "PRI", "PROG")
	fmt.Println(strings.Repeat("-", 112))
	for _, t := range tasks {
		fmt.Printf("%-36s %-40s %-24s %-4s %3s%%\n",
			strVal(t["id"]),
			truncate(strVal(t["description"]), 39),
			strVal(t["status"]),
			strVal(t["priority"]),
			strVal(t["progress"]),
		)
	}
	return nil
}

// --- task subcommands ---

func (c *Client) cmdTask(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: minuteman task <id> | task <submit|complete> <id>")
		os.Exit(1)
	}
	switch args[0] {
	case "submit":
		if len(args) < 2 {
			return fmt.Errorf("usage: minuteman task submit <id> [summary]")
		}
		body := fmt.Sprintf(`{"submission_notes":%q}`, strings.Join(args[2:], " "))
		if err := c.post("/api/tasks/"+args[1]+"/submit", strings.NewReader(body), nil); err != nil {
			return err
		}
		fmt.Printf("task %s submitted for verification\n", args[1])
	case "complete":
		if len(args) < 2 {
			return fmt.Errorf("usage: minuteman task complete <id>")
		}
		if err := c.post("/api/tasks/"+args[1]+"/complete", nil, nil); err != nil {
			return err
		}
		fmt.Printf("task %s completed\n", args[1])
	default:
		var t map[string]any
		if err := c.get("/api/tasks/"+args[0], &t); err != nil {
			return err
		}
		out, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

// --- capture ---

func (c *Client) cmdCapture(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: minuteman capture <text>")
	}
	body := fmt.Sprintf(`{"text":%q}`, strings.Join(args, " "))
	var result map[string]any
	if err := c.post("/api/tasks/capture", strings.NewReader(body), &result); err != nil {
		return err
	}
	fmt.Printf("captured task %s\n", strVal(result["id"]))
	return nil
}

// --- briefing ---

func (c *Client) cmdBriefing(_ []string) error {
	var b map[string]any
	if err := c.get("/api/analytics/briefing", &b); err != nil {
		return err
	}
	fmt.Printf("completed today:   %s\n", strVal(b["completed_today"]))
	fmt.Printf("blocked:           %s\n", strVal(b["blocked_count"]))
	fmt.Printf("at risk:           %s\n", strVal(b["risk_count"]))
	fmt.Printf("overdue:           %s\n", strVal(b["overdue_count"]))
	fmt.Printf("pending approval:  %s\n", strVal(b["pending_approval"]))
	fmt.Printf("SLA breached:      %s\n", strVal(b["sla_breached"]))
	if hp, ok := b["high_priority"].([]any); ok && len(hp) > 0 {
		fmt.Println("high priority:")
		for _, item := range hp {
			if m, ok := item.(map[string]any); ok {
				fmt.Printf("  [%s] %s\n", strVal(m["priority"]), truncate(strVal(m["description"]), 70))
			}
		}
	}
	return nil
}

// --- productivity ---

func (c *Client) cmdProductivity(args []string) error {
	fs := flag.NewFlagSet("productivity", flag.ExitOnError)
	days := fs.Int("days", 7, "window size in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var p map[string]any
	if err := c.get("/api/analytics/productivity?days="+url.QueryEscape(fmt.Sprint(*days)), &p); err != nil {
		return err
	}
	fmt.Printf("window:           %s days\n", strVal(p["period_days"]))
	fmt.Printf("meetings:         %s\n", strVal(p["meetings_held"]))
	fmt.Printf("tasks created:    %s\n", strVal(p["total_tasks"]))
	fmt.Printf("tasks completed:  %s\n", strVal(p["completed_tasks"]))
	fmt.Printf("completion rate:  %s%%\n", strVal(p["completion_rate"]))
	return nil
}

// --- helpers ---

func strVal(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
