// Package logger builds *slog.Logger instances for cartsync components.
//
// New applies functional options (format, level, static attributes, context
// extractors) and wraps the chosen slog handler with LogHandlerDecorator so
// values stored in a context.Context are injected into every record.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log := logger.New(logger.WithDevelopment("cartsync"))
//	log.InfoContext(ctx, "cart updated",
//	    logger.Component("cart"),
//	    logger.ProductID(p.ID),
//	    logger.Quantity(2),
//	)
//
// Error and Errors return an empty attribute for nil errors, so callers can
// log unconditionally:
//
//	log.Warn("store read failed", logger.Error(err))
package logger
