package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"quest-go/internal/uploader"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// consoleNotifier prints toasts as colored lines and counts the failures.
type consoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	errors int
}

var _ uploader.Notifier = (*consoleNotifier)(nil)

func newConsoleNotifier(out io.Writer) *consoleNotifier {
	return &consoleNotifier{out: out}
}

func (n *consoleNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", green("✓"), message)
}

func (n *consoleNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	fmt.Fprintf(n.out, "%s %s\n", red("✗"), message)
}

func (n *consoleNotifier) Errors() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errors
}

// progressPrinter 只在某个上传的百分比变化时打印一行。
type progressPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last map[string]int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, last: make(map[string]int)}
}

func (p *progressPrinter) print(entries []uploader.ProgressEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	live := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		live[e.ID] = struct{}{}
		if prev, ok := p.last[e.ID]; ok && prev == e.Percent {
			continue
		}
		p.last[e.ID] = e.Percent
		fmt.Fprintf(p.out, "%s %-32s %3d%%\n", cyan("↑"), e.FileName, e.Percent)
	}
	for id := range p.last {
		if _, ok := live[id]; !ok {
			delete(p.last, id)
		}
	}
}

func formatAttachmentLine(id uint, icon uploader.Icon, name string, size int64, url string) string {
	return fmt.Sprintf("%s %-9s %-40s %10s  %s", yellow(fmt.Sprintf("[%d]", id)), icon, name, uploader.FormatFileSize(size), gray(url))
}

// lockedWriter 让通知和进度两个输出源共享同一个 writer。
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
