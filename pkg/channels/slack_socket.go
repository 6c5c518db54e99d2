package channels

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/logger"
)

// SlackSocketChannel receives events over Socket Mode. The api client must
// be built with slack.OptionAppLevelToken.
type SlackSocketChannel struct {
	*BaseChannel
	client *socketmode.Client
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSlackSocketChannel(api *slack.Client, eventBus *bus.EventBus, allowList []string, debug bool) *SlackSocketChannel {
	return &SlackSocketChannel{
		BaseChannel: NewBaseChannel("slack_socket", eventBus, allowList),
		client:      socketmode.New(api, socketmode.OptionDebug(debug)),
	}
}

func (c *SlackSocketChannel) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.consume(runCtx)
	}()
	go func() {
		defer c.wg.Done()
		if err := c.client.RunContext(runCtx); err != nil && runCtx.Err() == nil {
			logger.ErrorCF(c.Name(), "Socket mode connection ended", map[string]any{"error": err.Error()})
		}
	}()

	c.SetRunning(true)
	logger.InfoC(c.Name(), "Socket mode receiver started")
	return nil
}

func (c *SlackSocketChannel) Stop(context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.SetRunning(false)
	logger.InfoC(c.Name(), "Socket mode receiver stopped")
	return nil
}

func (c *SlackSocketChannel) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.client.Events:
			if !ok {
				return
			}
			c.handle(ctx, evt)
		}
	}
}

func (c *SlackSocketChannel) handle(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.InfoC(c.Name(), "Connecting to Slack")
	case socketmode.EventTypeConnected:
		logger.InfoC(c.Name(), "Connected to Slack")
	case socketmode.EventTypeConnectionError:
		logger.WarnC(c.Name(), "Connection error, retrying")
	case socketmode.EventTypeEventsAPI:
		if evt.Request == nil {
			return
		}
		// Ack before handling; Slack redelivers unacknowledged envelopes and
		// events are never retried here.
		c.client.Ack(*evt.Request)

		ev, err := DecodeCallbackEvent(evt.Request.Payload)
		if err != nil {
			logger.WarnCF(c.Name(), "Dropping undecodable event", map[string]any{
				"envelope_id": evt.Request.EnvelopeID,
				"error":       err.Error(),
			})
			return
		}
		if err := c.HandleEvent(ctx, ev); err != nil {
			logger.ErrorCF(c.Name(), "Failed to publish event", map[string]any{"error": err.Error()})
		}
	}
}
