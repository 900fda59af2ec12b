package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hejijunhao/jobtray/internal/config"
	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/notify"
	"github.com/hejijunhao/jobtray/internal/output/async"
	"github.com/hejijunhao/jobtray/internal/output/file"
	"github.com/hejijunhao/jobtray/internal/output/multi"
	"github.com/hejijunhao/jobtray/internal/output/stdout"
	"github.com/hejijunhao/jobtray/internal/output/webhook"
)

// desktopNotifier is a notify.Notifier that can report whether its backend
// exists on this machine.
type desktopNotifier interface {
	notify.Notifier
	Available() error
}

// buildOutput assembles the presentation outputs for ui. Notification and
// webhook delivery can be slow, so they run behind async buffers.
//
// The desktop UI fails when no notification backend exists. The terminal UI
// treats notifications as optional.
func buildOutput(cfg config.Config, ui string, w io.Writer, n desktopNotifier) (*multi.Multi, error) {
	var targets []multi.Target
	fail := func(err error) (*multi.Multi, error) {
		_ = multi.New(targets...).Close()
		return nil, err
	}

	switch ui {
	case config.UIStdout:
		targets = append(targets, multi.Target{Name: "stdout", Output: stdout.New(w, cfg.Output.Pretty)})
	case config.UIDesktop, config.UITUI:
		if err := n.Available(); err != nil {
			if ui == config.UIDesktop {
				return fail(fmt.Errorf("desktop notifications unavailable: %w", err))
			}
			slog.Info("desktop notifications disabled", "error", err)
			break
		}
		targets = append(targets, multi.Target{
			Name:   "notify",
			Output: async.New(notify.NewOutput(n), queueOptions(cfg.Output, "notify")...),
		})
	}

	if cfg.Output.File != "" {
		f, err := file.New(cfg.Output.File, fileOptions(cfg.Output)...)
		if err != nil {
			return fail(fmt.Errorf("output file: %w", err))
		}
		targets = append(targets, multi.Target{Name: "file", Output: f})
	}

	if cfg.Output.Webhook != "" {
		hook := webhook.New(cfg.Output.Webhook, webhookOptions(cfg.Output)...)
		targets = append(targets, multi.Target{
			Name:   "webhook",
			Output: async.New(hook, queueOptions(cfg.Output, "webhook")...),
		})
	}

	return multi.New(targets...), nil
}

func fileOptions(oc config.OutputConfig) []file.Option {
	opts := []file.Option{file.WithMaxSize(oc.FileMaxSize)}
	if oc.FileKeep > 0 {
		opts = append(opts, file.WithKeep(oc.FileKeep))
	}
	if oc.FileFormat == config.FileFormatText {
		opts = append(opts, file.WithFormat(file.Text))
	}
	return opts
}

func webhookOptions(oc config.OutputConfig) []webhook.Option {
	statuses := make([]model.Status, len(oc.Statuses))
	for i, st := range oc.Statuses {
		statuses[i] = model.Status(st)
	}
	opts := []webhook.Option{
		webhook.WithHeaders(oc.Headers),
		webhook.WithStatuses(statuses...),
		// Batched flushes fail off the write path, so count them here.
		webhook.WithOnError(func(err error) {
			metrics.ObserveOutputError("webhook")
			slog.Warn("webhook flush failed", "output", "webhook", "error", err)
		}),
	}
	if oc.WebhookBatchSize > 0 {
		opts = append(opts, webhook.WithBatchSize(oc.WebhookBatchSize))
	}
	if oc.WebhookFlushInterval > 0 {
		opts = append(opts, webhook.WithFlushInterval(oc.WebhookFlushInterval))
	}
	if oc.WebhookTimeout > 0 {
		opts = append(opts, webhook.WithTimeout(oc.WebhookTimeout))
	}
	return opts
}

func queueOptions(oc config.OutputConfig, name string) []async.Option {
	opts := []async.Option{async.WithName(name)}
	if oc.QueueSize > 0 {
		opts = append(opts, async.WithBufferSize(oc.QueueSize))
	}
	if oc.DropOnFull {
		opts = append(opts, async.WithDropOnFull())
	}
	return opts
}
