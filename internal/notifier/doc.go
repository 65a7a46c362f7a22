// Package notifier announces newly collected event records.
//
// TwitterNotifier posts one status per record through the v1.1 API, pausing
// between posts, and DryRunNotifier prints those statuses instead.
// TelegramNotifier sends a digest grouped by venue to a chat; pair it with a
// WriterSender to print the digest.
package notifier
