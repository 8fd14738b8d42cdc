/*
Package events provides an in-memory event broker for reconciliation events.

The reconciler pass publishes one event per queue that was created, changed,
deleted or failed, and one pass.completed event at the end of every pass.
Subscribers receive every event; the CLI subscribes to log them and the
agent uses them to keep component health current.

# Delivery

Publishing goes through a buffered channel (100 events) and a single
broadcast goroutine that copies each event into every subscriber channel
(50 events each). A subscriber whose buffer is full misses the event rather
than blocking the pass. Stop delivers what is already queued before
returning.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			log.Logger.Info().Str("type", string(ev.Type)).Msg(ev.Message)
		}
	}()

Event IDs are random UUIDs; metadata carries the queue name, the run ID and,
for failures, the error text.
*/
package events
