/*
Package barrier provides a counting completion barrier for joining fan-out work.

A Barrier is created for a fixed number of completion reports. Producers call
ReportDone once per finished operation; observers registered with OnDone,
OnAllDone, OnTimeout and OnError are notified synchronously from the call that
caused the notification:

	b, err := barrier.New(2, barrier.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	b.OnAllDone(func(total int) { log.Info().Int("total", total).Msg("all done") })
	b.OnTimeout(func(fired, total int) { log.Warn().Msgf("%d/%d before deadline", fired, total) })

	go func() { fetch(urlA); b.ReportDone(urlA) }()
	go func() { fetch(urlB); b.ReportDone(urlB) }()

For a single report the notifications are delivered in the order Error (only
when more reports than required were received), Done, AllDone (only on the
report that reaches the total). The Timeout notification is delivered from the
deadline timer's goroutine. Notifications from concurrent reports may
interleave.

Reports beyond the total are not rejected: the counter keeps increasing, an
OverCompletion error is delivered to error observers and the Done notification
is still emitted. Reaching the total does not tear the barrier down; call
Destroy to silence it. Once Destroy has been called, observers that have not
started yet are skipped, later reports are ignored and the deadline can no
longer fire.

Observers run without any barrier lock held, so they may report, subscribe or
destroy re-entrantly.
*/
package barrier
