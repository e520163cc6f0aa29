// Package notify carries the change notification emitted after every
// successful persisted mutation: an abstract signal telling the
// presentation layer that on-disk state changed.
package notify

// Notifier receives change notifications.
type Notifier interface {
	DataChanged()
}

// NopNotifier discards notifications. Used by contexts with no attached
// presentation layer, such as the one-shot data CLI commands.
type NopNotifier struct{}

// DataChanged does nothing.
func (NopNotifier) DataChanged() {}
