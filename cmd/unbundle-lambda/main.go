// Copyright IBM Corp. 2023, 2025

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/hashicorp/go-unbundle"
	"github.com/hashicorp/go-unbundle/notify"
)

// Request is the payload of an extraction invocation.
type Request struct {
	Archive             string `json:"archive"`
	Destination         string `json:"destination"`
	StripFirstComponent *bool  `json:"strip_first_component,omitempty"`
	EventBus            string `json:"event_bus,omitempty"`
}

// Response reports the outcome of an invocation.
type Response struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message,omitempty"`
	Telemetry *unbundle.TelemetryData `json:"telemetry,omitempty"`
}

// sinkFactory creates the event sink of an invocation
type sinkFactory func(ctx context.Context, eventBus, archive, destination string) (*notify.EventSink, error)

// handler runs extractions and publishes their outcome
type handler struct {
	logger  *slog.Logger
	newSink sinkFactory
}

// Handle extracts the requested archive.
func (h *handler) Handle(ctx context.Context, req Request) (Response, error) {
	strip := true
	if req.StripFirstComponent != nil {
		strip = *req.StripFirstComponent
	}

	var td *unbundle.TelemetryData
	cfg := unbundle.NewConfig(
		unbundle.WithLogger(h.logger),
		unbundle.WithStripFirstComponent(strip),
		unbundle.WithTelemetryHook(func(ctx context.Context, d *unbundle.TelemetryData) {
			td = d
		}),
	)

	out := unbundle.NewOutcomeChan()
	callbacks := []unbundle.Callback{out}

	var sink *notify.EventSink
	if req.EventBus != "" {
		var err error
		if sink, err = h.newSink(ctx, req.EventBus, req.Archive, req.Destination); err != nil {
			return Response{}, err
		}
		callbacks = append(callbacks, sink)
	}

	if err := unbundle.Extract(ctx, req.Archive, req.Destination, unbundle.MultiCallback(callbacks...), cfg); err != nil {
		return Response{Message: err.Error(), Telemetry: td}, nil
	}

	outcome := <-out.C()
	if sink != nil {
		if err := sink.Err(); err != nil {
			h.logger.Warn("cannot publish outcome", "error", err)
		}
	}
	return Response{Success: outcome.Success, Message: outcome.Message, Telemetry: td}, nil
}

func main() {
	h := &handler{
		logger:  slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		newSink: notify.NewEventSinkFromEnv,
	}
	lambda.Start(h.Handle)
}
