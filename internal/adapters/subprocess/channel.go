// Package subprocess implements ports.Channel over a long-lived child
// process. The child reads one file path per line on stdin and answers each
// with one JSON value on stdout; answers are concatenated with no delimiter
// beyond JSON's own structure.
//
// Lifecycle: Unopened -> Open (first Exchange) -> Closed (Close). The child
// is started once and reused for every file of the run. An answer that does
// not decode leaves the stream position unknown, so the channel goes Broken:
// that request reports ErrNoResponse and every later one ErrBroken.
package subprocess

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/corey/xtags/internal/ports"
)

var (
	ErrNoParserCommand = errors.New("no parser command")
	ErrSpawn           = errors.New("cannot start parser")
	ErrChannelWrite    = errors.New("cannot write to parser")
	ErrNoResponse      = ports.ErrNoResponse
	ErrClosed          = errors.New("parser channel closed")
	ErrBroken          = errors.New("parser output out of sync after an unparsable answer")
)

type state int

const (
	unopened state = iota
	open
	broken
	closed
)

// Options configures a Channel.
type Options struct {
	Command string       // program and arguments, split on whitespace
	Dir     string       // working directory that paths are made relative to
	Stderr  io.Writer    // child's stderr; os.Stderr when nil
	Logger  *slog.Logger // nil disables logging
}

// Channel owns one external tagger process.
type Channel struct {
	opts Options

	mu    sync.Mutex
	state state
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   io.ReadCloser
	w     *bufio.Writer
	dec   *json.Decoder
}

// New returns an unopened channel. Nothing is started until the first
// Exchange.
func New(opts Options) *Channel {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Channel{opts: opts}
}

// Exchange sends path to the tagger and returns its answer.
func (c *Channel) Exchange(path string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case closed:
		return nil, ErrClosed
	case broken:
		return nil, ErrBroken
	case unopened:
		if err := c.openLocked(); err != nil {
			return nil, err
		}
	}

	if _, err := c.w.WriteString(c.requestPath(path) + "\n"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelWrite, err)
	}
	if err := c.w.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelWrite, err)
	}

	var raw json.RawMessage
	if err := c.dec.Decode(&raw); err != nil {
		c.state = broken
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	return raw, nil
}

// requestPath makes absolute paths relative to the working directory.
// Paths with no relative form (another volume) are sent as given.
func (c *Channel) requestPath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	dir := c.opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return path
		}
		dir = wd
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}

func (c *Channel) openLocked() error {
	argv := strings.Fields(c.opts.Command)
	if len(argv) == 0 {
		return ErrNoParserCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = c.opts.Dir
	cmd.Stderr = c.opts.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("%w: %s: %v", ErrSpawn, c.opts.Command, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.out = stdout
	c.w = bufio.NewWriter(stdin)
	c.dec = json.NewDecoder(bufio.NewReader(stdout))
	c.state = open
	c.opts.Logger.Debug("parser started", "command", c.opts.Command, "pid", cmd.Process.Pid)
	return nil
}

// Close closes both pipe ends and reaps the child. Only the first call does
// anything. The child's exit status is logged, not returned.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	c.state = closed
	if prev != open && prev != broken {
		return nil
	}

	c.stdin.Close()
	c.out.Close()
	// os.Process.Wait retries interrupted waits itself.
	err := c.cmd.Wait()
	c.opts.Logger.Debug("parser exited", "pid", c.cmd.Process.Pid, "status", exitStatus(err))
	return nil
}

// Pid returns the child's process ID, or 0 before it starts and after Close.
func (c *Channel) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != open && c.state != broken {
		return 0
	}
	return c.cmd.Process.Pid
}

func exitStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
