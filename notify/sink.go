// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package notify publishes extraction outcomes as CloudWatch Events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents/types"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-unbundle"
)

const (
	// DefaultSource is the event source of published outcomes.
	DefaultSource = "go-unbundle"

	DetailTypeSucceeded = "Extraction Succeeded"
	DetailTypeFailed    = "Extraction Failed"
)

// PutEventsAPI is the part of the CloudWatch Events client used by [EventSink].
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *cloudwatchevents.PutEventsInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutEventsOutput, error)
}

// Detail is the JSON payload of a published event.
type Detail struct {
	Archive     string `json:"archive"`
	Destination string `json:"destination"`
	Message     string `json:"message,omitempty"`
}

// EventSink is an [unbundle.Callback] that publishes one event per outcome.
// Publish failures never reach the extraction, they are kept for [EventSink.Err].
type EventSink struct {
	ctx    context.Context
	client PutEventsAPI

	// Source of the events, defaults to [DefaultSource].
	Source string

	// EventBus is the name or ARN of the target bus. Empty selects the
	// default bus of the account.
	EventBus string

	// Archive and Destination are reported in the event detail.
	Archive     string
	Destination string

	mu  sync.Mutex
	err error
}

var _ unbundle.Callback = (*EventSink)(nil)

// NewEventSink creates a sink that publishes with client. ctx bounds the
// publish requests.
func NewEventSink(ctx context.Context, client PutEventsAPI, eventBus, archive, destination string) *EventSink {
	return &EventSink{
		ctx:         ctx,
		client:      client,
		Source:      DefaultSource,
		EventBus:    eventBus,
		Archive:     archive,
		Destination: destination,
	}
}

// NewEventSinkFromEnv creates a sink with a client built from the default AWS
// configuration chain (environment, shared config, instance role).
func NewEventSinkFromEnv(ctx context.Context, eventBus, archive, destination string) (*EventSink, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}
	return NewEventSink(ctx, cloudwatchevents.NewFromConfig(cfg), eventBus, archive, destination), nil
}

// OnSuccess publishes a succeeded event.
func (s *EventSink) OnSuccess() {
	s.publish(DetailTypeSucceeded, "")
}

// OnError publishes a failed event with message.
func (s *EventSink) OnError(message string) {
	s.publish(DetailTypeFailed, message)
}

// Err returns the publish failures collected so far.
func (s *EventSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *EventSink) publish(detailType string, message string) {
	detail, err := json.Marshal(Detail{
		Archive:     s.Archive,
		Destination: s.Destination,
		Message:     message,
	})
	if err != nil {
		s.fail(err)
		return
	}

	entry := types.PutEventsRequestEntry{
		Source:     aws.String(s.Source),
		DetailType: aws.String(detailType),
		Detail:     aws.String(string(detail)),
	}
	if s.EventBus != "" {
		entry.EventBusName = aws.String(s.EventBus)
	}

	out, err := s.client.PutEvents(s.ctx, &cloudwatchevents.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		s.fail(fmt.Errorf("cannot publish %q: %w", detailType, err))
		return
	}
	for _, e := range out.Entries {
		if e.ErrorCode != nil {
			s.fail(fmt.Errorf("event %q rejected: %s: %s", detailType, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage)))
		}
	}
}

func (s *EventSink) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = multierror.Append(s.err, err)
}
