// Package event provides a synchronous publish/subscribe bus for engine
// change notifications.
//
// Subscribers register a handler against a topic pattern; publishers emit a
// payload under a concrete topic and every matching handler runs on the
// publishing goroutine, in subscription order. Handlers must be fast and
// must not publish re-entrantly on the same bus.
//
//	bus := event.NewBus()
//	sub, _ := bus.SubscribeFunc("document.**", func(tp topic.Topic, payload any) error {
//	    ...
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(events.TopicDocumentChanged, events.DocumentChanged{...})
//
// Handler errors are collected and returned to the publisher; a failing
// handler never prevents delivery to the rest.
package event
