package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/treewatch/watch"
)

// eventMessage is the printable form of a watch event.
type eventMessage struct {
	Event   string    `json:"event"`
	Path    string    `json:"path"`
	AbsPath string    `json:"abs_path"`
	Name    string    `json:"name"`
	Dir     string    `json:"dir"`
	Kind    string    `json:"kind"`
	Size    int64     `json:"size"`
	Time    time.Time `json:"time"`
	IsNew   bool      `json:"is_new,omitempty"`
}

func newEventMessage(root string, ev watch.Event) eventMessage {
	name := ev.Op.String()
	if ev.Op == watch.OpChange && ev.IsNew {
		name = "create"
	}
	return eventMessage{
		Event:   name,
		Path:    ev.Path,
		AbsPath: filepath.Join(root, filepath.FromSlash(ev.Path)),
		Name:    path.Base(ev.Path),
		Dir:     path.Dir(ev.Path),
		Kind:    ev.Meta.Kind.String(),
		Size:    ev.Meta.Size,
		Time:    ev.Meta.ModTime,
		IsNew:   ev.IsNew,
	}
}

// formatCommand substitutes event placeholders in template.
//
//	{event} create, change or delete
//	{}      absolute path
//	{path}  path relative to the watched root
//	{base}  last path element
//	{dir}   parent of the relative path
//	{kind}  file, dir or other
//	{size}  size in bytes
//	{time}  modification time, RFC 3339
//
// Each placeholder also has a quoted form, e.g. {"base"}, and {""} for {}.
func formatCommand(template string, msg eventMessage) string {
	size := strconv.FormatInt(msg.Size, 10)
	mtime := msg.Time.Format(time.RFC3339)

	r := strings.NewReplacer(
		`{""}`, strconv.Quote(msg.AbsPath),
		`{"event"}`, strconv.Quote(msg.Event),
		`{"path"}`, strconv.Quote(msg.Path),
		`{"base"}`, strconv.Quote(msg.Name),
		`{"dir"}`, strconv.Quote(msg.Dir),
		`{"kind"}`, strconv.Quote(msg.Kind),
		`{"size"}`, strconv.Quote(size),
		`{"time"}`, strconv.Quote(mtime),
		"{}", msg.AbsPath,
		"{event}", msg.Event,
		"{path}", msg.Path,
		"{base}", msg.Name,
		"{dir}", msg.Dir,
		"{kind}", msg.Kind,
		"{size}", size,
		"{time}", mtime,
	)
	return r.Replace(template)
}

// executeCommand runs cmdStr with placeholders filled in from msg. The
// command's stdout is copied to out.
func executeCommand(ctx context.Context, out io.Writer, cmdStr string, msg eventMessage) error {
	args := strings.Fields(cmdStr)
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	for i, a := range args {
		args[i] = formatCommand(a, msg)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("command error: %s: %w", strings.TrimSpace(stderr.String()), err)
		}
		return err
	}

	if stdout.Len() > 0 {
		_, err := out.Write(stdout.Bytes())
		return err
	}
	return nil
}
