// Package notify receives library-change webhooks from the media server
// and translates them into analysis runner triggers.
package notify
