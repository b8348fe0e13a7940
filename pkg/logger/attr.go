package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Key records a durable store key under the key "store_key".
func Key(key string) slog.Attr {
	return slog.String("store_key", key)
}

// Origin records the execution context (tab) identifier under the key "origin".
// An empty origin yields an empty Attr.
func Origin(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("origin", id)
}

// Topic records an event bus topic under the key "topic".
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// ProductID records the product identifier under the key "product_id".
func ProductID(id string) slog.Attr {
	return slog.String("product_id", id)
}

// Quantity records an item quantity under the key "quantity".
func Quantity(q int) slog.Attr {
	return slog.Int("quantity", q)
}

// State records a lifecycle state name under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Email records the user email under the key "email".
// An empty email yields an empty Attr.
func Email(email string) slog.Attr {
	if email == "" {
		return slog.Attr{}
	}
	return slog.String("email", email)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
