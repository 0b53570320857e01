// Package notifications delivers the rendered weekly digest.
//
// The Telegram implementation sends HTML messages through the Bot API and
// splits long digests on line boundaries. When the bot token or chat id is
// missing, NewService returns a no-op implementation; callers that must
// deliver validate the transport configuration first.
//
// Workflow code depends only on the Service interface.
package notifications
