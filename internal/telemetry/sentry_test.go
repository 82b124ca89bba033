package telemetry

import (
	"context"
	"errors"
	"testing"

	"pdf-rag/internal/config"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WithoutDSNIsNoop(t *testing.T) {
	shutdown, err := Init(config.SentryConfig{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestCaptureError_UsesRequestHub(t *testing.T) {
	var captured []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			captured = append(captured, e)
			return nil
		},
	})
	require.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	AddBreadcrumb(ctx, "ingest", "extracting a.pdf")
	CaptureError(ctx, errors.New("chat service failed"))

	require.Len(t, captured, 1)
	event := captured[0]
	require.NotEmpty(t, event.Exception)
	assert.Equal(t, "chat service failed", event.Exception[0].Value)
	require.Len(t, event.Breadcrumbs, 1)
	assert.Equal(t, "extracting a.pdf", event.Breadcrumbs[0].Message)
}
