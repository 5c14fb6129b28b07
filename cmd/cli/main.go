// Command pl is a CLI client for the PassLocker user API.
package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ---- http client ----

// apiError carries a non-2xx response.
type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Msg)
}

type client struct {
	base string // e.g. https://localhost:8080/api/user
	hc   *http.Client
}

func newClient(addr string, hc *http.Client) *client {
	return &client{base: strings.TrimRight(addr, "/") + "/api/user", hc: hc}
}

func (c *client) do(ctx context.Context, method, path string, body []byte) (*http.Response, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode/100 != 2 {
		return resp, b, &apiError{Status: resp.StatusCode, Msg: errorMessage(resp, b)}
	}
	return resp, b, nil
}

// errorMessage extracts the problem title or the plain-text body.
func errorMessage(resp *http.Response, b []byte) string {
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
		var p struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(b, &p) == nil && p.Title != "" {
			if p.Detail != "" {
				return p.Title + ": " + p.Detail
			}
			return p.Title
		}
	}
	return strings.TrimSpace(string(b))
}

func (c *client) list(ctx context.Context) ([]byte, error) {
	_, b, err := c.do(ctx, http.MethodGet, "/all-users", nil)
	return b, err
}

func (c *client) get(ctx context.Context, id string) ([]byte, error) {
	_, b, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(id), nil)
	return b, err
}

type profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Secret   string `json:"secret"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// create returns the created view and the Location header.
func (c *client) create(ctx context.Context, p profile) ([]byte, string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, "", err
	}
	resp, b, err := c.do(ctx, http.MethodPost, "/create-user", body)
	if err != nil {
		return nil, "", err
	}
	return b, resp.Header.Get("Location"), nil
}

func (c *client) edit(ctx context.Context, id string, user []byte) error {
	if !json.Valid(user) {
		return errors.New("edit: body is not valid JSON")
	}
	_, _, err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(id)+"/edit-profile", user)
	return err
}

func (c *client) remove(ctx context.Context, id string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id)+"/delete-user", nil)
	return err
}

func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

// ---- utils ----

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

// printJSON re-indents a JSON document; non-JSON input is printed as is.
func printJSON(w io.Writer, raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, _ = w.Write(raw)
		return
	}
	buf.WriteByte('\n')
	_, _ = w.Write(buf.Bytes())
}

func usage() {
	fmt.Fprintf(os.Stderr, `pl CLI
Usage:
  pl -addr URL [-cacert file | -insecure] <cmd> [args]

Commands:
  version
  list
  get        -id <id>
  create     -u <username> -e <email> -p <password> -s <secret> [-n name] [-l location] [-g gender]
  edit       -id <id> -file <user.json|->          (full overwrite)
  rm         -id <id>
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	// global flags
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	tlsCfg, err := loadTLS(*caPath, *insecure)
	if err != nil {
		fail(err)
	}
	hc := &http.Client{Timeout: 30 * time.Second}
	if tlsCfg != nil {
		hc.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, newClient(*addr, hc), flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			usage()
		}
		fail(err)
	}
}

var errUsage = errors.New("usage")

// run executes one subcommand and writes its output to out.
func run(ctx context.Context, c *client, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	switch cmd {

	case "version":
		fmt.Fprintf(out, "pl %s (%s)\n", version, buildDate)

	case "list":
		b, err := c.list(ctx)
		if err != nil {
			return err
		}
		printJSON(out, b)

	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		id := fs.String("id", "", "user id")
		if err := fs.Parse(rest); err != nil || *id == "" {
			return fmt.Errorf("%w: need -id", errUsage)
		}
		b, err := c.get(ctx, *id)
		if err != nil {
			return err
		}
		printJSON(out, b)

	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		var p profile
		fs.StringVar(&p.Username, "u", "", "username")
		fs.StringVar(&p.Email, "e", "", "email")
		fs.StringVar(&p.Password, "p", "", "password")
		fs.StringVar(&p.Secret, "s", "", "secret")
		fs.StringVar(&p.Name, "n", "", "display name")
		fs.StringVar(&p.Location, "l", "", "location")
		fs.StringVar(&p.Gender, "g", "", "gender")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if p.Username == "" || p.Email == "" || p.Password == "" || p.Secret == "" {
			return fmt.Errorf("%w: need -u, -e, -p and -s", errUsage)
		}
		b, loc, err := c.create(ctx, p)
		if err != nil {
			return err
		}
		printJSON(out, b)
		if loc != "" {
			fmt.Fprintln(out, "location:", loc)
		}

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		id := fs.String("id", "", "user id")
		file := fs.String("file", "", "user JSON (or - for stdin)")
		if err := fs.Parse(rest); err != nil || *id == "" || *file == "" {
			return fmt.Errorf("%w: need -id and -file", errUsage)
		}
		body, err := readAll(*file)
		if err != nil {
			return err
		}
		if err := c.edit(ctx, *id, body); err != nil {
			return err
		}
		fmt.Fprintln(out, "updated", *id)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ContinueOnError)
		id := fs.String("id", "", "user id")
		if err := fs.Parse(rest); err != nil || *id == "" {
			return fmt.Errorf("%w: need -id", errUsage)
		}
		if err := c.remove(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintln(out, "deleted", *id)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

// ---- helpers ----

func fail(err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", ae.Status, ae.Msg)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
