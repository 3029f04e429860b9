package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/notd/internal/ipc"
	"go.klb.dev/notd/internal/record"
	"go.klb.dev/notd/internal/store"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show settings, capture files, and the running listener",
		Long: `Displays where settings were loaded from, the capture bucket files and
their sizes, and, when a listener is running, its trigger counters (queried
over the local IPC socket).`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

// bucketFile describes one capture file. Damaged is set when parsing stopped
// early; Entries then counts what was read before that point.
type bucketFile struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time,omitzero"`
	Entries int       `json:"entries"`
	Damaged string    `json:"damaged,omitempty"`
}

type statusReport struct {
	Config   string       `json:"config"`
	RootDir  string       `json:"root_dir"`
	Captures string       `json:"captures"`
	Buckets  []bucketFile `json:"buckets"`
	Hotkey   string       `json:"hotkey"`
	Mouse    string       `json:"mouse"`
	Socket   string       `json:"socket"`
	Listener *ipc.Status  `json:"listener"`
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	defer setupLogging(v, cfg, false).Close()

	w := store.New(cfg)
	r := statusReport{
		Config:   configSource(v),
		RootDir:  cfg.RootDir,
		Captures: w.Dir(),
		Hotkey:   triggerLabel(cfg.Hotkey.Enabled, cfg.Hotkey.String()),
		Mouse:    triggerLabel(cfg.MouseCapture.Enabled, cfg.MouseCapture.Button),
		Socket:   ipc.SocketPath(),
	}
	for _, p := range w.Paths() {
		b := bucketFile{Path: p}
		if fi, err := os.Stat(p); err == nil {
			b.Exists, b.Size, b.ModTime = true, fi.Size(), fi.ModTime()
			n, err := countEntries(p)
			b.Entries = n
			if err != nil {
				slog.Warn("bucket file not fully readable", "path", p, "err", err)
				b.Damaged = err.Error()
			}
		}
		r.Buckets = append(r.Buckets, b)
	}
	if st, err := ipc.Query(); err == nil {
		r.Listener = &st
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printStatus(out, r)
	return nil
}

func triggerLabel(enabled bool, name string) string {
	if !enabled {
		return "disabled"
	}
	return name
}

func printStatus(out io.Writer, r statusReport) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Config:\t%s\n", r.Config)
	fmt.Fprintf(w, "Data:\t%s\n", r.RootDir)
	fmt.Fprintf(w, "Hotkey:\t%s\n", r.Hotkey)
	fmt.Fprintf(w, "Mouse:\t%s\n", r.Mouse)
	if l := r.Listener; l != nil {
		fmt.Fprintf(w, "Listener:\t%s, pid %d, up %s\n", l.State, l.PID, fmtAge(l.StartedAt))
		fmt.Fprintf(w, "Triggers:\t%d (%d captured, %d failed)\n", l.Triggers, l.Captured, l.Failed)
	} else {
		fmt.Fprintf(w, "Listener:\tnot running\n")
	}
	fmt.Fprintln(w)
	_ = w.Flush()

	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "FILE\tENTRIES\tSIZE\tLAST WRITE\n")
	_, _ = fmt.Fprintf(tw, "----\t-------\t----\t----------\n")
	for _, b := range r.Buckets {
		entries, size, last := "-", "-", "-"
		if b.Exists {
			entries = fmt.Sprint(b.Entries)
			if b.Damaged != "" {
				entries += "+?"
			}
			size = fmtSize(b.Size)
			last = b.ModTime.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Path, entries, size, last)
	}
	_ = tw.Flush()
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm", int(age.Minutes()))
	}
	return age.String()
}

func fmtSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// countEntries parses a bucket file in the encoding its name implies.
func countEntries(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	recs, err := record.Parse(f, record.FormatFor(path))
	return len(recs), err
}
