// Package notifications delivers batch events to ntfy.
//
// Item success, item failure and the end-of-batch summary can each be
// toggled in the [notifications] config section. Without a topic the
// service is a no-op.
package notifications
